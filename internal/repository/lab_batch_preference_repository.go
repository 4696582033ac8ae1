package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// LabBatchPreferenceRepository persists preferred teacher pairings a section
// declares for one of its lab batches, consumed by S6 as a soft hint.
type LabBatchPreferenceRepository struct {
	db *sqlx.DB
}

// NewLabBatchPreferenceRepository constructs the repository.
func NewLabBatchPreferenceRepository(db *sqlx.DB) *LabBatchPreferenceRepository {
	return &LabBatchPreferenceRepository{db: db}
}

// ListAll returns every declared preference, for snapshot assembly ahead of
// a generation run.
func (r *LabBatchPreferenceRepository) ListAll(ctx context.Context) ([]models.LabBatchPreference, error) {
	const query = `SELECT id, section_id, batch_number, lab_id, teacher1_id, teacher2_id FROM lab_batch_preferences`
	var prefs []models.LabBatchPreference
	if err := r.db.SelectContext(ctx, &prefs, query); err != nil {
		return nil, fmt.Errorf("list lab batch preferences: %w", err)
	}
	return prefs, nil
}

// ListBySection returns the preferences declared for a single section.
func (r *LabBatchPreferenceRepository) ListBySection(ctx context.Context, sectionID string) ([]models.LabBatchPreference, error) {
	const query = `SELECT id, section_id, batch_number, lab_id, teacher1_id, teacher2_id FROM lab_batch_preferences WHERE section_id = $1`
	var prefs []models.LabBatchPreference
	if err := r.db.SelectContext(ctx, &prefs, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section lab batch preferences: %w", err)
	}
	return prefs, nil
}

// Upsert inserts or replaces the preference for a (section, batch, lab) tuple.
func (r *LabBatchPreferenceRepository) Upsert(ctx context.Context, pref *models.LabBatchPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	const query = `INSERT INTO lab_batch_preferences (id, section_id, batch_number, lab_id, teacher1_id, teacher2_id)
		VALUES (:id, :section_id, :batch_number, :lab_id, :teacher1_id, :teacher2_id)
		ON CONFLICT (section_id, batch_number, lab_id)
		DO UPDATE SET teacher1_id = EXCLUDED.teacher1_id, teacher2_id = EXCLUDED.teacher2_id`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert lab batch preference: %w", err)
	}
	return nil
}

// Delete removes a declared preference.
func (r *LabBatchPreferenceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lab_batch_preferences WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lab batch preference: %w", err)
	}
	return nil
}
