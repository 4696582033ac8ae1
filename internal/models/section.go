package models

import "time"

// TermParity mirrors scheduler.TermParity for the persistence layer so
// repositories don't need to import the scheduler package for a two-value enum.
type TermParity string

const (
	TermOdd  TermParity = "ODD"
	TermEven TermParity = "EVEN"
)

// Section represents a student cohort scheduled as a unit, e.g. "3A".
type Section struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Letter     string     `db:"letter" json:"letter"`
	Semester   int        `db:"semester" json:"semester"`
	Term       TermParity `db:"term" json:"term"`
	BatchCount int        `db:"batch_count" json:"batch_count"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// SectionFilter defines filter criteria for listing sections.
type SectionFilter struct {
	Semester  int
	Term      TermParity
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
