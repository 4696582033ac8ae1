package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/pkg/export"
	"github.com/noah-isme/sma-adp-api/pkg/storage"
)

type stubVersionReader struct {
	version *models.TimetableVersion
	err     error
}

func (s *stubVersionReader) FindByID(ctx context.Context, id string) (*models.TimetableVersion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.version, nil
}

func sampleVersion(t *testing.T) *models.TimetableVersion {
	t.Helper()
	teacherID := "teacher-1"
	roomID := "room-1"
	sessions := models.TimetableSessions{
		TheorySessions: []models.TheorySessionRow{
			{ID: "s1", SectionID: "sec-1", SubjectID: "MAT", TeacherID: &teacherID, ClassroomID: &roomID, Day: 1, Start: 480, End: 540, DurationHours: 1},
		},
		LabSessions: []models.LabSessionRow{
			{ID: "l1", SectionID: "sec-1", Day: 2, Start: 600, End: 720, DurationHours: 2, Round: 1, Batches: []models.LabBatchRow{
				{BatchNumber: 1, LabID: "PHY-LAB", LabRoomID: &roomID, Teacher1ID: &teacherID},
			}},
		},
	}
	raw, err := json.Marshal(sessions)
	require.NoError(t, err)
	return &models.TimetableVersion{ID: "ver-1", SectionID: "sec-1", Version: 2, Sessions: types.JSONText(raw)}
}

func newExportServiceForTest(t *testing.T, version *models.TimetableVersion) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(&stubVersionReader{version: version}, store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t, sampleVersion(t))

	result, err := svc.Generate(context.Background(), "ver-1", ExportFormatCSV)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "/export/")

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, store := newExportServiceForTest(t, sampleVersion(t))

	result, err := svc.Generate(context.Background(), "ver-1", ExportFormatPDF)
	require.NoError(t, err)

	path := store.Path(result.RelativePath)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateUnsupportedFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t, sampleVersion(t))

	_, err := svc.Generate(context.Background(), "ver-1", ExportFormat("xlsx"))
	require.Error(t, err)
}

func TestExportServiceGenerateVersionNotFound(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(&stubVersionReader{err: sql.ErrNoRows}, store, signer, ExportConfig{}, zap.NewNop(), nil, nil)

	_, err = svc.Generate(context.Background(), "missing", ExportFormatCSV)
	require.Error(t, err)
}
