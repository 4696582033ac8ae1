package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableVersionStatus represents lifecycle phases for a generated timetable.
type TimetableVersionStatus string

const (
	TimetableVersionDraft     TimetableVersionStatus = "DRAFT"
	TimetableVersionPublished TimetableVersionStatus = "PUBLISHED"
	TimetableVersionArchived  TimetableVersionStatus = "ARCHIVED"
)

// TimetableVersion captures one versioned generation run's output for a
// section within a term: the persisted form of scheduler.Timetable, plus the
// run metadata (seed, validation status) needed to reproduce it exactly.
type TimetableVersion struct {
	ID        string                 `db:"id" json:"id"`
	TermID    string                 `db:"term_id" json:"term_id"`
	SectionID string                 `db:"section_id" json:"section_id"`
	Version   int                    `db:"version" json:"version"`
	Status    TimetableVersionStatus `db:"status" json:"status"`
	Seed      int64                  `db:"seed" json:"seed"`
	Sessions  types.JSONText         `db:"sessions" json:"sessions"`
	Flags     types.JSONText         `db:"flags" json:"flags"`
	Meta      types.JSONText         `db:"meta" json:"meta"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt time.Time              `db:"updated_at" json:"updated_at"`
}

// TimetableSessions is the shape marshaled into TimetableVersion.Sessions.
type TimetableSessions struct {
	TheorySessions []TheorySessionRow `json:"theory_sessions"`
	LabSessions    []LabSessionRow    `json:"lab_sessions"`
}

// TimetableVersionSummary aggregates the versions available for a term/section pair.
type TimetableVersionSummary struct {
	TermID    string                `json:"term_id"`
	SectionID string                `json:"section_id"`
	ActiveID  *string               `json:"active_id,omitempty"`
	Versions  []TimetableVersionMeta `json:"versions"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// TimetableVersionMeta is lightweight metadata for list views.
type TimetableVersionMeta struct {
	ID          string                 `json:"id"`
	Version     int                    `json:"version"`
	Status      TimetableVersionStatus `json:"status"`
	BestFitness float64                `json:"best_fitness"`
	CreatedAt   time.Time              `json:"created_at"`
}

// GenerationRun records one generate_all invocation for audit purposes
// (spec §12 supplemented feature: audit trail of generation runs).
type GenerationRun struct {
	ID          string    `db:"id" json:"id"`
	TermID      string    `db:"term_id" json:"term_id"`
	Seed        int64     `db:"seed" json:"seed"`
	Refined     bool      `db:"refined" json:"refined"`
	BestFitness float64   `db:"best_fitness" json:"best_fitness"`
	TriggeredBy *string   `db:"triggered_by" json:"triggered_by,omitempty"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	FinishedAt  time.Time `db:"finished_at" json:"finished_at"`
}
