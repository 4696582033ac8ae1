package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

// ClassroomRepository handles persistence for generic theory rooms.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// ListAll returns every classroom, ordered by room number, for snapshot
// assembly ahead of a generation run.
func (r *ClassroomRepository) ListAll(ctx context.Context) ([]models.Classroom, error) {
	const query = `SELECT id, number, created_at FROM classrooms ORDER BY number`
	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a classroom by id.
func (r *ClassroomRepository) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	const query = `SELECT id, number, created_at FROM classrooms WHERE id = $1`
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create persists a new classroom.
func (r *ClassroomRepository) Create(ctx context.Context, room *models.Classroom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classrooms (id, number, created_at) VALUES (:id, :number, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// Delete removes a classroom record.
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classrooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}
	return nil
}

// LabRoomRepository handles persistence for lab-equipped rooms and their
// declared equipment tags.
type LabRoomRepository struct {
	db *sqlx.DB
}

// NewLabRoomRepository constructs a LabRoomRepository.
func NewLabRoomRepository(db *sqlx.DB) *LabRoomRepository {
	return &LabRoomRepository{db: db}
}

// ListAll returns every lab room, for snapshot assembly ahead of a
// generation run.
func (r *LabRoomRepository) ListAll(ctx context.Context) ([]models.LabRoom, error) {
	const query = `SELECT id, number, created_at FROM lab_rooms ORDER BY number`
	var rooms []models.LabRoom
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list lab rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a lab room by id.
func (r *LabRoomRepository) FindByID(ctx context.Context, id string) (*models.LabRoom, error) {
	const query = `SELECT id, number, created_at FROM lab_rooms WHERE id = $1`
	var room models.LabRoom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create persists a new lab room.
func (r *LabRoomRepository) Create(ctx context.Context, room *models.LabRoom) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lab_rooms (id, number, created_at) VALUES (:id, :number, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create lab room: %w", err)
	}
	return nil
}

// Delete removes a lab room record.
func (r *LabRoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lab_rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lab room: %w", err)
	}
	return nil
}

// ListEquipment returns the equipment tags a lab room declares, consumed by
// the snapshot loader to populate scheduler.LabRoom.EquipmentTags.
func (r *LabRoomRepository) ListEquipment(ctx context.Context, labRoomID string) ([]models.LabRoomEquipment, error) {
	const query = `SELECT lab_room_id, equipment_tag FROM lab_room_equipment WHERE lab_room_id = $1`
	var equipment []models.LabRoomEquipment
	if err := r.db.SelectContext(ctx, &equipment, query, labRoomID); err != nil {
		return nil, fmt.Errorf("list lab room equipment: %w", err)
	}
	return equipment, nil
}

// SetEquipment replaces the full set of equipment tags declared for a lab room.
func (r *LabRoomRepository) SetEquipment(ctx context.Context, labRoomID string, tags []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set equipment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM lab_room_equipment WHERE lab_room_id = $1`, labRoomID); err != nil {
		return fmt.Errorf("clear lab room equipment: %w", err)
	}
	for _, tag := range tags {
		if _, err = tx.ExecContext(ctx, `INSERT INTO lab_room_equipment (lab_room_id, equipment_tag) VALUES ($1, $2)`, labRoomID, tag); err != nil {
			return fmt.Errorf("insert lab room equipment: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set equipment tx: %w", err)
	}
	return nil
}
