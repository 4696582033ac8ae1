package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Shortform string    `db:"shortform" json:"shortform"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TeacherSubjectCapability records that a teacher may teach a given subject.
type TeacherSubjectCapability struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// TeacherLabCapability records that a teacher may teach a given lab.
type TeacherLabCapability struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	LabID     string `db:"lab_id" json:"lab_id"`
}
