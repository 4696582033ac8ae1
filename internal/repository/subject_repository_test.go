package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

func newSubjectMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "shortform", "hours_per_week", "max_hours_per_day", "requires_teacher",
		"is_project", "is_open_elective", "is_professional_elective", "is_external_dept",
		"fixed_semester", "fixed_day", "fixed_start_text", "fixed_end_text", "created_at", "updated_at",
	}).AddRow("subj-1", "MAT", 4.0, 2.0, true, false, false, false, false, nil, nil, nil, nil, now, now)

	mock.ExpectQuery(`SELECT .+ FROM subjects WHERE id = \$1`).
		WithArgs("subj-1").
		WillReturnRows(rows)

	subject, err := repo.FindByID(context.Background(), "subj-1")
	require.NoError(t, err)
	assert.Equal(t, "MAT", subject.Shortform)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryExistsByShortform(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(shortform) = LOWER($1) LIMIT 1")).
		WithArgs("MAT").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByShortform(context.Background(), "MAT", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{Shortform: "FIS", HoursPerWeek: 3, MaxHoursPerDay: 2}
	err := repo.Create(context.Background(), subject)
	require.NoError(t, err)
	assert.NotEmpty(t, subject.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCountTeacherAssignments(t *testing.T) {
	db, mock, cleanup := newSubjectMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teacher_assignments WHERE subject_id = $1")).
		WithArgs("subj-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountTeacherAssignments(context.Background(), "subj-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
