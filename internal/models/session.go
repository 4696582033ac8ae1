package models

// TheorySessionRow is the persisted form of scheduler.TheorySession, flattened
// for storage as JSON inside a TimetableVersion (see timetable_version.go) rather
// than one row per session — the whole week is the unit of versioning.
type TheorySessionRow struct {
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

// LabBatchRow is the persisted form of scheduler.BatchAssignment.
type LabBatchRow struct {
	BatchNumber int     `json:"batch_number"`
	LabID       string  `json:"lab_id"`
	LabRoomID   *string `json:"lab_room_id,omitempty"`
	Teacher1ID  *string `json:"teacher1_id,omitempty"`
	Teacher2ID  *string `json:"teacher2_id,omitempty"`
}

// LabSessionRow is the persisted form of scheduler.LabSession.
type LabSessionRow struct {
	ID            string        `json:"id"`
	SectionID     string        `json:"section_id"`
	Day           int           `json:"day"`
	Start         int           `json:"start"`
	End           int           `json:"end"`
	DurationHours float64       `json:"duration_hours"`
	Round         int           `json:"round"`
	Batches       []LabBatchRow `json:"batches"`
}

// FlagRow is the persisted form of scheduler.Flag.
type FlagRow struct {
	Kind      string `json:"kind"`
	SectionID string `json:"section_id"`
	SubjectID string `json:"subject_id,omitempty"`
	LabID     string `json:"lab_id,omitempty"`
	Round     int    `json:"round,omitempty"`
	Message   string `json:"message"`
}
