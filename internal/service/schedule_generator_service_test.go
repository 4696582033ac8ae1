package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/pkg/config"
)

type stubSectionRepo struct{ sections []models.Section }

func (s *stubSectionRepo) ListByTerm(ctx context.Context, term models.TermParity) ([]models.Section, error) {
	return s.sections, nil
}

type stubSubjectRepo struct{ subjects []models.Subject }

func (s *stubSubjectRepo) ListAll(ctx context.Context) ([]models.Subject, error) { return s.subjects, nil }

type stubLabRepo struct{ labs []models.Lab }

func (s *stubLabRepo) ListAll(ctx context.Context) ([]models.Lab, error) { return s.labs, nil }

type stubClassroomRepo struct{ rooms []models.Classroom }

func (s *stubClassroomRepo) ListAll(ctx context.Context) ([]models.Classroom, error) { return s.rooms, nil }

type stubLabRoomRepo struct{ rooms []models.LabRoom }

func (s *stubLabRoomRepo) ListAll(ctx context.Context) ([]models.LabRoom, error) { return s.rooms, nil }
func (s *stubLabRoomRepo) ListEquipment(ctx context.Context, labRoomID string) ([]models.LabRoomEquipment, error) {
	return nil, nil
}

type stubTeacherRepo struct{ teachers []models.Teacher }

func (s *stubTeacherRepo) ListActive(ctx context.Context) ([]models.Teacher, error) { return s.teachers, nil }
func (s *stubTeacherRepo) ListSubjectCapabilities(ctx context.Context, teacherID string) ([]models.TeacherSubjectCapability, error) {
	return nil, nil
}
func (s *stubTeacherRepo) ListLabCapabilities(ctx context.Context, teacherID string) ([]models.TeacherLabCapability, error) {
	return nil, nil
}

type stubAssignmentRepo struct{}

func (s *stubAssignmentRepo) ListBySection(ctx context.Context, sectionID string) ([]models.TeacherAssignment, error) {
	return nil, nil
}

type stubLabBatchPrefRepo struct{}

func (s *stubLabBatchPrefRepo) ListAll(ctx context.Context) ([]models.LabBatchPreference, error) {
	return nil, nil
}

type stubDefaultTermResolver struct {
	termID string
	err    error
}

func (s *stubDefaultTermResolver) GetDefaultScheduleGenerationTermID(ctx context.Context) (string, error) {
	return s.termID, s.err
}

type stubTermReader struct {
	term *models.Term
	err  error
}

func (s *stubTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.term, nil
}

type stubVersionRepo struct {
	created       []*models.TimetableVersion
	byID          map[string]*models.TimetableVersion
	listResult    []models.TimetableVersion
	runs          []*models.GenerationRun
	archivedTerm  string
	archivedSect  string
	updatedStatus models.TimetableVersionStatus
	deleteID      string
}

func (r *stubVersionRepo) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error {
	version.ID = "version-" + version.SectionID
	version.Version = 1
	r.created = append(r.created, version)
	return nil
}

func (r *stubVersionRepo) ListByTermSection(ctx context.Context, termID, sectionID string) ([]models.TimetableVersion, error) {
	return r.listResult, nil
}

func (r *stubVersionRepo) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	if v, ok := r.byID[id]; ok {
		return v, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubVersionRepo) FindPublished(ctx context.Context, termID, sectionID string) (*models.TimetableVersion, error) {
	return nil, sql.ErrNoRows
}

func (r *stubVersionRepo) Delete(ctx context.Context, id string) error {
	r.deleteID = id
	return nil
}

func (r *stubVersionRepo) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableVersionStatus) error {
	r.updatedStatus = status
	return nil
}

func (r *stubVersionRepo) ArchivePublished(ctx context.Context, exec sqlx.ExtContext, termID, sectionID string) error {
	r.archivedTerm = termID
	r.archivedSect = sectionID
	return nil
}

func (r *stubVersionRepo) RecordGenerationRun(ctx context.Context, run *models.GenerationRun) error {
	run.ID = "run-1"
	r.runs = append(r.runs, run)
	return nil
}

func newTestService(t *testing.T, versions *stubVersionRepo) (*ScheduleGeneratorService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	term := &stubTermReader{term: &models.Term{ID: "term-1", AcademicYear: "2026", Parity: models.TermOdd}}
	sections := &stubSectionRepo{sections: []models.Section{
		{ID: "sec-1", Name: "3A", Letter: "A", Semester: 3, Term: models.TermOdd, BatchCount: 3},
	}}

	svc := NewScheduleGeneratorService(
		term, sections, &stubSubjectRepo{}, &stubLabRepo{}, &stubClassroomRepo{}, &stubLabRoomRepo{},
		&stubTeacherRepo{}, &stubAssignmentRepo{}, &stubLabBatchPrefRepo{},
		versions, sqlxDB, nil, zap.NewNop(),
		config.SchedulerConfig{DefaultSeed: 7},
		config.RefinerTuning{},
		nil,
		nil,
	)
	return svc, mock, func() { _ = sqlxDB.Close() }
}

func TestScheduleGeneratorServiceGeneratePreview(t *testing.T) {
	svc, _, closeFn := newTestService(t, &stubVersionRepo{})
	defer closeFn()

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetablesRequest{TermID: "term-1"})
	require.NoError(t, err)
	assert.Equal(t, "2026", resp.AcademicYear)
	assert.Len(t, resp.Timetables, 1)
	assert.Equal(t, "sec-1", resp.Timetables[0].SectionID)
	assert.NotEmpty(t, resp.StageSummary)
}

func TestScheduleGeneratorServiceGenerateFallsBackToDefaultTerm(t *testing.T) {
	svc, _, closeFn := newTestService(t, &stubVersionRepo{})
	defer closeFn()
	svc.defaultTerm = &stubDefaultTermResolver{termID: "term-1"}

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetablesRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2026", resp.AcademicYear)
}

func TestScheduleGeneratorServiceGenerateNoTermNoDefaultFails(t *testing.T) {
	svc, _, closeFn := newTestService(t, &stubVersionRepo{})
	defer closeFn()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetablesRequest{})
	assert.Error(t, err)
}

func TestScheduleGeneratorServiceGenerateUnknownTerm(t *testing.T) {
	svc, _, closeFn := newTestService(t, &stubVersionRepo{})
	defer closeFn()
	svc.terms = &stubTermReader{err: sql.ErrNoRows}

	_, err := svc.Generate(context.Background(), dto.GenerateTimetablesRequest{TermID: "missing"})
	require.Error(t, err)
}

func TestScheduleGeneratorServiceSavePersistsOneVersionPerSection(t *testing.T) {
	versions := &stubVersionRepo{}
	svc, mock, closeFn := newTestService(t, versions)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.Save(context.Background(), dto.SaveTimetablesRequest{TermID: "term-1"})
	require.NoError(t, err)
	require.Len(t, resp.Versions, 1)
	assert.Equal(t, "sec-1", resp.Versions[0].SectionID)
	assert.Equal(t, "run-1", resp.GenerationRunID)
	assert.Len(t, versions.created, 1)
	assert.Len(t, versions.runs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServicePublishBlocksOnUnresolvedFlags(t *testing.T) {
	flags, err := json.Marshal([]models.FlagRow{{Kind: "TEACHER_CONFLICT", SectionID: "sec-1", Message: "overlap"}})
	require.NoError(t, err)

	versions := &stubVersionRepo{byID: map[string]*models.TimetableVersion{
		"ver-1": {ID: "ver-1", TermID: "term-1", SectionID: "sec-1", Status: models.TimetableVersionDraft, Flags: types.JSONText(flags)},
	}}
	svc, _, closeFn := newTestService(t, versions)
	defer closeFn()

	err = svc.Publish(context.Background(), "ver-1")
	require.Error(t, err)
}

func TestScheduleGeneratorServicePublishSucceeds(t *testing.T) {
	versions := &stubVersionRepo{byID: map[string]*models.TimetableVersion{
		"ver-1": {ID: "ver-1", TermID: "term-1", SectionID: "sec-1", Status: models.TimetableVersionDraft, Flags: types.JSONText(`[]`)},
	}}
	svc, mock, closeFn := newTestService(t, versions)
	defer closeFn()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := svc.Publish(context.Background(), "ver-1")
	require.NoError(t, err)
	assert.Equal(t, "term-1", versions.archivedTerm)
	assert.Equal(t, models.TimetableVersionPublished, versions.updatedStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceDeleteRejectsPublished(t *testing.T) {
	versions := &stubVersionRepo{byID: map[string]*models.TimetableVersion{
		"ver-1": {ID: "ver-1", Status: models.TimetableVersionPublished},
	}}
	svc, _, closeFn := newTestService(t, versions)
	defer closeFn()

	err := svc.Delete(context.Background(), "ver-1")
	require.Error(t, err)
	assert.Empty(t, versions.deleteID)
}

func TestScheduleGeneratorServiceDeleteDraft(t *testing.T) {
	versions := &stubVersionRepo{byID: map[string]*models.TimetableVersion{
		"ver-1": {ID: "ver-1", Status: models.TimetableVersionDraft},
	}}
	svc, _, closeFn := newTestService(t, versions)
	defer closeFn()

	err := svc.Delete(context.Background(), "ver-1")
	require.NoError(t, err)
	assert.Equal(t, "ver-1", versions.deleteID)
}
