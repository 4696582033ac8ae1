package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// LabRepository handles persistence for laboratory courses.
type LabRepository struct {
	db *sqlx.DB
}

// NewLabRepository constructs a LabRepository.
func NewLabRepository(db *sqlx.DB) *LabRepository {
	return &LabRepository{db: db}
}

const labColumns = "id, shortform, semester, term, required_equipment_tag, created_at, updated_at"

// List returns labs matching filters with pagination metadata.
func (r *LabRepository) List(ctx context.Context, filter models.LabFilter) ([]models.Lab, int, error) {
	base := "FROM labs WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(shortform) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]bool{"shortform": true, "semester": true, "created_at": true, "updated_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", labColumns, base, sortBy, order, size, offset)
	var labs []models.Lab
	if err := r.db.SelectContext(ctx, &labs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list labs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count labs: %w", err)
	}

	return labs, total, nil
}

// ListAll returns every lab, unpaginated, for snapshot assembly ahead of a
// generation run.
func (r *LabRepository) ListAll(ctx context.Context) ([]models.Lab, error) {
	query := fmt.Sprintf("SELECT %s FROM labs ORDER BY shortform", labColumns)
	var labs []models.Lab
	if err := r.db.SelectContext(ctx, &labs, query); err != nil {
		return nil, fmt.Errorf("list all labs: %w", err)
	}
	return labs, nil
}

// FindByID returns a lab by id.
func (r *LabRepository) FindByID(ctx context.Context, id string) (*models.Lab, error) {
	query := fmt.Sprintf("SELECT %s FROM labs WHERE id = $1", labColumns)
	var lab models.Lab
	if err := r.db.GetContext(ctx, &lab, query, id); err != nil {
		return nil, err
	}
	return &lab, nil
}

// Create persists a new lab.
func (r *LabRepository) Create(ctx context.Context, lab *models.Lab) error {
	if lab.ID == "" {
		lab.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lab.CreatedAt.IsZero() {
		lab.CreatedAt = now
	}
	lab.UpdatedAt = now

	const query = `INSERT INTO labs (id, shortform, semester, term, required_equipment_tag, created_at, updated_at)
		VALUES (:id, :shortform, :semester, :term, :required_equipment_tag, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lab); err != nil {
		return fmt.Errorf("create lab: %w", err)
	}
	return nil
}

// Update modifies a lab record.
func (r *LabRepository) Update(ctx context.Context, lab *models.Lab) error {
	lab.UpdatedAt = time.Now().UTC()
	const query = `UPDATE labs SET shortform = :shortform, semester = :semester, term = :term,
		required_equipment_tag = :required_equipment_tag, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lab); err != nil {
		return fmt.Errorf("update lab: %w", err)
	}
	return nil
}

// Delete removes a lab record.
func (r *LabRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM labs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lab: %w", err)
	}
	return nil
}

// CountTimetableVersions returns the number of timetable versions whose
// sessions JSON references the lab.
func (r *LabRepository) CountTimetableVersions(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM timetable_versions WHERE sessions::text LIKE '%' || $1 || '%'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count lab timetable references: %w", err)
	}
	return count, nil
}
