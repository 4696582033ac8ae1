package models

import "time"

// Subject represents a theory course offered to one or more sections.
type Subject struct {
	ID                     string    `db:"id" json:"id"`
	Shortform              string    `db:"shortform" json:"shortform"`
	HoursPerWeek           float64   `db:"hours_per_week" json:"hours_per_week"`
	MaxHoursPerDay         float64   `db:"max_hours_per_day" json:"max_hours_per_day"`
	RequiresTeacher        bool      `db:"requires_teacher" json:"requires_teacher"`
	IsProject              bool      `db:"is_project" json:"is_project"`
	IsOpenElective         bool      `db:"is_open_elective" json:"is_open_elective"`
	IsProfessionalElective bool      `db:"is_professional_elective" json:"is_professional_elective"`
	IsExternalDept         bool      `db:"is_external_dept" json:"is_external_dept"`
	FixedSemester          *int      `db:"fixed_semester" json:"fixed_semester,omitempty"`
	FixedDay               *int      `db:"fixed_day" json:"fixed_day,omitempty"`
	FixedStartText         *string   `db:"fixed_start_text" json:"fixed_start_text,omitempty"`
	FixedEndText           *string   `db:"fixed_end_text" json:"fixed_end_text,omitempty"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// IsFixed reports whether this subject row declares a fixed weekly slot.
func (s Subject) IsFixed() bool {
	return s.FixedDay != nil && s.FixedStartText != nil && s.FixedEndText != nil
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Semester  int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
