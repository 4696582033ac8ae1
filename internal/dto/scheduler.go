package dto

import "time"

// GenerateTimetablesRequest runs the seven-stage pipeline for every section
// in a term without persisting anything — a preview mode for inspecting a
// candidate timetable before committing it as a draft.
// TermID may be omitted; the generator falls back to the
// default_schedule_generation_term_id configuration value.
type GenerateTimetablesRequest struct {
	TermID string `json:"term_id,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`
	Refine bool   `json:"refine"`
}

// SaveTimetablesRequest runs the pipeline and persists one DRAFT
// TimetableVersion per section, plus a GenerationRun audit row. TermID may be
// omitted; the generator falls back to the default_schedule_generation_term_id
// configuration value.
type SaveTimetablesRequest struct {
	TermID      string  `json:"term_id,omitempty"`
	Seed        *int64  `json:"seed,omitempty"`
	Refine      bool    `json:"refine"`
	TriggeredBy *string `json:"triggered_by,omitempty"`
}

// BatchAssignmentDTO mirrors scheduler.BatchAssignment for wire responses.
type BatchAssignmentDTO struct {
	BatchNumber int     `json:"batch_number"`
	LabID       string  `json:"lab_id"`
	LabRoomID   *string `json:"lab_room_id,omitempty"`
	Teacher1ID  *string `json:"teacher1_id,omitempty"`
	Teacher2ID  *string `json:"teacher2_id,omitempty"`
	Status      string  `json:"status"`
}

// TheorySessionDTO mirrors scheduler.TheorySession.
type TheorySessionDTO struct {
	ID            string  `json:"id"`
	SectionID     string  `json:"section_id"`
	SubjectID     string  `json:"subject_id"`
	TeacherID     *string `json:"teacher_id,omitempty"`
	ClassroomID   *string `json:"classroom_id,omitempty"`
	Day           int     `json:"day"`
	Start         int     `json:"start"`
	End           int     `json:"end"`
	DurationHours float64 `json:"duration_hours"`
	IsFixed       bool    `json:"is_fixed"`
}

// LabSessionDTO mirrors scheduler.LabSession.
type LabSessionDTO struct {
	ID            string               `json:"id"`
	SectionID     string               `json:"section_id"`
	Day           int                  `json:"day"`
	Start         int                  `json:"start"`
	End           int                  `json:"end"`
	DurationHours float64              `json:"duration_hours"`
	Round         int                  `json:"round"`
	Batches       []BatchAssignmentDTO `json:"batches"`
}

// FlagDTO mirrors scheduler.Flag.
type FlagDTO struct {
	Kind      string `json:"kind"`
	SectionID string `json:"section_id"`
	SubjectID string `json:"subject_id,omitempty"`
	LabID     string `json:"lab_id,omitempty"`
	Round     int    `json:"round,omitempty"`
	Message   string `json:"message"`
}

// StageSummaryDTO mirrors scheduler.StageSummary.
type StageSummaryDTO struct {
	Stage      string   `json:"stage"`
	Placements int      `json:"placements"`
	Unresolved int      `json:"unresolved"`
	Notes      []string `json:"notes,omitempty"`
}

// TimetablePreviewDTO is a single section's generated timetable, shaped for
// a preview response (not yet persisted).
type TimetablePreviewDTO struct {
	SectionID        string             `json:"section_id"`
	SectionName      string             `json:"section_name"`
	Semester         int                `json:"semester"`
	Term             string             `json:"term"`
	AcademicYear     string             `json:"academic_year"`
	TheorySessions   []TheorySessionDTO `json:"theory_sessions"`
	LabSessions      []LabSessionDTO    `json:"lab_sessions"`
	ValidationStatus string             `json:"validation_status"`
	Flags            []FlagDTO          `json:"flags"`
}

// GenerateTimetablesResponse wraps a full pipeline run's output.
type GenerateTimetablesResponse struct {
	AcademicYear string                `json:"academic_year"`
	Term         string                `json:"term"`
	Seed         int64                 `json:"seed"`
	Refined      bool                  `json:"refined"`
	BestFitness  *float64              `json:"best_fitness,omitempty"`
	TimedOut     bool                  `json:"timed_out,omitempty"`
	Timetables   []TimetablePreviewDTO `json:"timetables"`
	StageSummary []StageSummaryDTO     `json:"stage_summary"`
}

// TimetableVersionSummaryDTO is the lightweight shape returned after a save.
type TimetableVersionSummaryDTO struct {
	ID               string    `json:"id"`
	SectionID        string    `json:"section_id"`
	Version          int       `json:"version"`
	Status           string    `json:"status"`
	ValidationStatus string    `json:"validation_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// SaveTimetablesResponse is returned after persisting a generation run.
type SaveTimetablesResponse struct {
	GenerationRunID string                       `json:"generation_run_id"`
	BestFitness     *float64                     `json:"best_fitness,omitempty"`
	Versions        []TimetableVersionSummaryDTO `json:"versions"`
}

// TimetableVersionDetailDTO is the full persisted shape for a single version,
// unmarshaled back out of TimetableVersion.Sessions/Flags.
type TimetableVersionDetailDTO struct {
	ID         string             `json:"id"`
	TermID     string             `json:"term_id"`
	SectionID  string             `json:"section_id"`
	Version    int                `json:"version"`
	Status     string             `json:"status"`
	Seed       int64              `json:"seed"`
	TheorySessions []TheorySessionDTO `json:"theory_sessions"`
	LabSessions    []LabSessionDTO    `json:"lab_sessions"`
	Flags      []FlagDTO          `json:"flags"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
