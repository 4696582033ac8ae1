package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
)

type mockSubjectRepo struct {
	items           map[string]*models.Subject
	shortformIndex  map[string]string
	assignmentCount int
	created         *models.Subject
	deleted         string
}

func (m *mockSubjectRepo) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	return nil, 0, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := m.items[id]; ok {
		cp := *subject
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) ExistsByShortform(ctx context.Context, shortform, excludeID string) (bool, error) {
	if owner, ok := m.shortformIndex[shortform]; ok {
		if excludeID == "" || owner != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = "subject-new"
	m.created = subject
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error { return nil }

func (m *mockSubjectRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

func (m *mockSubjectRepo) CountTeacherAssignments(ctx context.Context, id string) (int, error) {
	return m.assignmentCount, nil
}

func TestSubjectServiceCreate(t *testing.T) {
	repo := &mockSubjectRepo{shortformIndex: map[string]string{}}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	subject, err := svc.Create(context.Background(), CreateSubjectRequest{
		Shortform:      "mat",
		HoursPerWeek:   4,
		MaxHoursPerDay: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "MAT", subject.Shortform)
	assert.NotNil(t, repo.created)
}

func TestSubjectServiceCreateDuplicateShortform(t *testing.T) {
	repo := &mockSubjectRepo{shortformIndex: map[string]string{"MAT": "subject-1"}}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateSubjectRequest{
		Shortform:      "MAT",
		HoursPerWeek:   4,
		MaxHoursPerDay: 2,
	})
	require.Error(t, err)
}

func TestSubjectServiceCreateRejectsPartialFixedSchedule(t *testing.T) {
	repo := &mockSubjectRepo{shortformIndex: map[string]string{}}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	day := 1
	_, err := svc.Create(context.Background(), CreateSubjectRequest{
		Shortform:      "UPA",
		HoursPerWeek:   2,
		MaxHoursPerDay: 2,
		FixedDay:       &day,
	})
	require.Error(t, err)
}

func TestSubjectServiceDeleteWithAssignmentsFails(t *testing.T) {
	repo := &mockSubjectRepo{
		items:           map[string]*models.Subject{"subject-1": {ID: "subject-1", Shortform: "MAT"}},
		assignmentCount: 1,
	}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "subject-1")
	require.Error(t, err)
	assert.Empty(t, repo.deleted)
}

func TestSubjectServiceDelete(t *testing.T) {
	repo := &mockSubjectRepo{
		items: map[string]*models.Subject{"subject-1": {ID: "subject-1", Shortform: "MAT"}},
	}
	svc := NewSubjectService(repo, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "subject-1")
	require.NoError(t, err)
	assert.Equal(t, "subject-1", repo.deleted)
}
