package scheduler

import "time"

// TheorySession is a single placed theory lecture block for one section.
type TheorySession struct {
	ID            string
	SectionID     string
	SubjectID     string
	TeacherID     *string
	ClassroomID   *string
	Day           Weekday
	Start         int // minutes since midnight
	End           int
	DurationHours float64
	IsFixed       bool
}

// Overlaps reports whether two sessions on the same day share any time.
func (s TheorySession) Overlaps(day Weekday, start, end int) bool {
	if s.Day != day {
		return false
	}
	return s.Start < end && start < s.End
}

// BatchAssignment is one of the three parallel sub-batches inside a LabSession.
type BatchAssignment struct {
	BatchNumber int
	LabID       string
	LabRoomID   *string
	Teacher1ID  *string
	Teacher2ID  *string
}

// TeacherStatus classifies how many compatible teachers a batch ended up with.
type TeacherStatus string

const (
	TeacherStatusTwo  TeacherStatus = "2_teachers"
	TeacherStatusOne  TeacherStatus = "1_teacher"
	TeacherStatusNone TeacherStatus = "no_teachers"
)

// Status derives the TeacherStatus for this batch from its assigned teachers.
func (b BatchAssignment) Status() TeacherStatus {
	switch {
	case b.Teacher1ID != nil && b.Teacher2ID != nil:
		return TeacherStatusTwo
	case b.Teacher1ID != nil || b.Teacher2ID != nil:
		return TeacherStatusOne
	default:
		return TeacherStatusNone
	}
}

// LabSession is a synchronized multi-batch lab block for one section.
type LabSession struct {
	ID            string
	SectionID     string
	Day           Weekday
	Start         int
	End           int
	DurationHours float64
	Round         int
	Batches       [3]BatchAssignment
}

// Overlaps reports whether a lab session on the same day shares any time.
func (s LabSession) Overlaps(day Weekday, start, end int) bool {
	if s.Day != day {
		return false
	}
	return s.Start < end && start < s.End
}

// Adjacent reports whether this session touches [start,end) at a boundary on the same day.
func (s LabSession) Adjacent(day Weekday, start, end int) bool {
	if s.Day != day {
		return false
	}
	return s.End == start || end == s.Start
}

// Break is a non-scheduler-owned display block (lunch, recess, etc).
type Break struct {
	Day   Weekday
	Start int
	End   int
	Label string
}

// ValidationStatus summarizes S7's findings for a timetable.
type ValidationStatus string

const (
	ValidationPassed   ValidationStatus = "passed"
	ValidationWarnings ValidationStatus = "warnings"
	ValidationFailed   ValidationStatus = "failed"
)

// StageName identifies a pipeline stage for metadata and metrics.
type StageName string

const (
	StageSectionInit      StageName = "S1_SectionInit"
	StageFixedSlotBlocker  StageName = "S2_FixedSlotBlocker"
	StageLabScheduler      StageName = "S3_LabScheduler"
	StageTheoryScheduler   StageName = "S4_TheoryScheduler"
	StageClassroomAssigner StageName = "S5_ClassroomAssigner"
	StageLabTeacherAssigner StageName = "S6_LabTeacherAssigner"
	StageValidator         StageName = "S7_Validator"
	StageMetaRefiner        StageName = "R_MetaRefiner"
)

// StageSummary records what a single pipeline stage accomplished.
type StageSummary struct {
	Stage      StageName
	Placements int
	Unresolved int
	Duration   time.Duration
	Notes      []string
}

// GenerationMetadata tracks pipeline progress for a single timetable.
type GenerationMetadata struct {
	CurrentStep      int
	StepsCompleted   []StageName
	IsComplete       bool
	ValidationStatus ValidationStatus
	PerStageSummary  map[StageName]*StageSummary
}

func newGenerationMetadata() GenerationMetadata {
	return GenerationMetadata{
		CurrentStep:     1,
		PerStageSummary: make(map[StageName]*StageSummary),
	}
}

// FlagKind names the reason a session or placement attempt was flagged.
type FlagKind string

const (
	FlagUnresolvedLabRound     FlagKind = "UNRESOLVED_LAB_ROUND"
	FlagUnplacedTheorySession  FlagKind = "UNPLACED_THEORY_SESSION"
	FlagUnassignedClassroom    FlagKind = "UNASSIGNED_CLASSROOM"
	FlagCapabilityShortage     FlagKind = "CAPABILITY_SHORTAGE"
	FlagHourCoverageMismatch   FlagKind = "HOUR_COVERAGE_MISMATCH"
	FlagTeacherConflict        FlagKind = "TEACHER_CONFLICT"
	FlagClassroomConflict      FlagKind = "CLASSROOM_CONFLICT"
	FlagLabRoomConflict        FlagKind = "LABROOM_CONFLICT"
	FlagConsecutiveLabSessions FlagKind = "CONSECUTIVE_LAB_SESSIONS"
	FlagMissingTeacher         FlagKind = "MISSING_TEACHER"
)

// Flag is an actionable diagnostic for something the pipeline could not resolve.
type Flag struct {
	Kind      FlagKind
	SectionID string
	SubjectID string
	LabID     string
	Round     int
	Message   string
}

// Timetable is the persisted output for a single section.
type Timetable struct {
	SectionID       string
	SectionName     string
	Semester        int
	Term            TermParity
	AcademicYear    string
	TheorySessions  []TheorySession
	LabSessions     []LabSession
	Breaks          []Break
	Metadata        GenerationMetadata
	FlaggedSessions []Flag
}

func newTimetable(sec Section, academicYear string) *Timetable {
	return &Timetable{
		SectionID:    sec.ID,
		SectionName:  sec.Name,
		Semester:     sec.Semester,
		Term:         sec.Term,
		AcademicYear: academicYear,
		Metadata:     newGenerationMetadata(),
	}
}

func (t *Timetable) recordStage(summary StageSummary) {
	t.Metadata.CurrentStep++
	t.Metadata.StepsCompleted = append(t.Metadata.StepsCompleted, summary.Stage)
	t.Metadata.PerStageSummary[summary.Stage] = &summary
}
