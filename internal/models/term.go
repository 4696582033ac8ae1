package models

import "time"

// Term models an academic term within the institution calendar: an academic
// year paired with an odd/even parity (spec §2 glossary).
type Term struct {
	ID           string     `db:"id" json:"id"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	Parity       TermParity `db:"parity" json:"parity"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      time.Time  `db:"end_date" json:"end_date"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	AcademicYear string
	Parity       TermParity
	IsActive     *bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
