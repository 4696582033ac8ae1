package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// TimetableVersionRepository persists versioned, generated section timetables.
type TimetableVersionRepository struct {
	db *sqlx.DB
}

// NewTimetableVersionRepository constructs the repository.
func NewTimetableVersionRepository(db *sqlx.DB) *TimetableVersionRepository {
	return &TimetableVersionRepository{db: db}
}

func (r *TimetableVersionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a timetable version assigning the next version
// number for the term-section tuple.
func (r *TimetableVersionRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error {
	if version == nil {
		return fmt.Errorf("timetable version payload is nil")
	}
	if version.TermID == "" || version.SectionID == "" {
		return fmt.Errorf("term_id and section_id are required")
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.Status == "" {
		version.Status = models.TimetableVersionDraft
	}
	if len(version.Meta) == 0 {
		version.Meta = types.JSONText(`{}`)
	}
	if len(version.Flags) == 0 {
		version.Flags = types.JSONText(`[]`)
	}
	now := time.Now().UTC()
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}
	version.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetable_versions WHERE term_id = $1 AND section_id = $2`
	if err := sqlx.GetContext(ctx, target, &version.Version, nextVersionQuery, version.TermID, version.SectionID); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetable_versions (id, term_id, section_id, version, status, seed, sessions, flags, meta, created_at, updated_at)
VALUES (:id, :term_id, :section_id, :version, :status, :seed, :sessions, :flags, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, version); err != nil {
		return fmt.Errorf("insert timetable version: %w", err)
	}
	return nil
}

// ListByTermSection returns every version for the given term-section tuple,
// newest first.
func (r *TimetableVersionRepository) ListByTermSection(ctx context.Context, termID, sectionID string) ([]models.TimetableVersion, error) {
	const query = `SELECT id, term_id, section_id, version, status, seed, sessions, flags, meta, created_at, updated_at
FROM timetable_versions WHERE term_id = $1 AND section_id = $2 ORDER BY version DESC`
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, termID, sectionID); err != nil {
		return nil, fmt.Errorf("list timetable versions: %w", err)
	}
	return versions, nil
}

// FindByID loads a timetable version by its identifier.
func (r *TimetableVersionRepository) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	const query = `SELECT id, term_id, section_id, version, status, seed, sessions, flags, meta, created_at, updated_at FROM timetable_versions WHERE id = $1`
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		return nil, err
	}
	return &version, nil
}

// FindPublished returns the currently published version for a term-section
// tuple, if one exists.
func (r *TimetableVersionRepository) FindPublished(ctx context.Context, termID, sectionID string) (*models.TimetableVersion, error) {
	const query = `SELECT id, term_id, section_id, version, status, seed, sessions, flags, meta, created_at, updated_at
FROM timetable_versions WHERE term_id = $1 AND section_id = $2 AND status = $3 LIMIT 1`
	var version models.TimetableVersion
	if err := r.db.GetContext(ctx, &version, query, termID, sectionID, models.TimetableVersionPublished); err != nil {
		return nil, err
	}
	return &version, nil
}

// Delete removes a stored timetable version.
func (r *TimetableVersionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetable_versions WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable version rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus transitions a timetable version's lifecycle status.
func (r *TimetableVersionRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableVersionStatus) error {
	target := r.exec(exec)
	const query = `UPDATE timetable_versions SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := target.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update timetable version status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable version status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArchivePublished demotes any currently published version for the
// term-section tuple to archived, within the same transaction as a new
// publish, so at most one version is ever published at a time.
func (r *TimetableVersionRepository) ArchivePublished(ctx context.Context, exec sqlx.ExtContext, termID, sectionID string) error {
	target := r.exec(exec)
	const query = `UPDATE timetable_versions SET status = $1, updated_at = $2 WHERE term_id = $3 AND section_id = $4 AND status = $5`
	if _, err := target.ExecContext(ctx, query, models.TimetableVersionArchived, time.Now().UTC(), termID, sectionID, models.TimetableVersionPublished); err != nil {
		return fmt.Errorf("archive published timetable version: %w", err)
	}
	return nil
}

// RecordGenerationRun inserts an audit row for a generate_all invocation.
func (r *TimetableVersionRepository) RecordGenerationRun(ctx context.Context, run *models.GenerationRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	const query = `
INSERT INTO generation_runs (id, term_id, seed, refined, best_fitness, triggered_by, started_at, finished_at)
VALUES (:id, :term_id, :seed, :refined, :best_fitness, :triggered_by, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("record generation run: %w", err)
	}
	return nil
}
