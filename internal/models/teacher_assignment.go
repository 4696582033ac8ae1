package models

import "time"

// TeacherAssignment names the teacher who owns a subject for a section in a
// given term: the persisted form of scheduler.TheoryAssignment.
type TeacherAssignment struct {
	ID        string    `db:"id" json:"id"`
	SectionID string    `db:"section_id" json:"section_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignmentDetail enriches an assignment with descriptive fields for
// admin-facing list views.
type TeacherAssignmentDetail struct {
	TeacherAssignment
	SectionName string `db:"section_name" json:"section_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// LabBatchPreference records a preferred teacher pairing for a section's
// batch on a given lab, consumed by S6 as a soft hint ahead of its usual
// load-balance/diversity ordering.
type LabBatchPreference struct {
	ID          string  `db:"id" json:"id"`
	SectionID   string  `db:"section_id" json:"section_id"`
	BatchNumber int     `db:"batch_number" json:"batch_number"`
	LabID       string  `db:"lab_id" json:"lab_id"`
	Teacher1ID  *string `db:"teacher1_id" json:"teacher1_id,omitempty"`
	Teacher2ID  *string `db:"teacher2_id" json:"teacher2_id,omitempty"`
}
