package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/pkg/export"
	"github.com/noah-isme/sma-adp-api/pkg/storage"
)

// ExportFormat names a renderable file type for a timetable export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type timetableVersionReader interface {
	FindByID(ctx context.Context, id string) (*models.TimetableVersion, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders a section's generated weekly grid (one
// TimetableVersion) to CSV or PDF and stores it behind a signed,
// time-limited download URL, reusing the teacher's Dataset/signed-URL
// primitives against the scheduler's own output instead of the analytics
// reports they originally served (spec §12 supplemented feature).
type ExportService struct {
	versions timetableVersionReader
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(versions timetableVersionReader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		versions: versions,
		storage:  storage,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the given timetable version's weekly grid and persists it.
func (s *ExportService) Generate(ctx context.Context, versionID string, format ExportFormat) (*ExportResult, error) {
	version, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	dataset, title, err := s.buildDataset(version)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(version, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(version.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (versionID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(version *models.TimetableVersion, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_v%d_%s.%s", sanitizeFilename(version.SectionID), version.Version, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(version *models.TimetableVersion) (export.Dataset, string, error) {
	var sessions models.TimetableSessions
	if len(version.Sessions) > 0 {
		if err := json.Unmarshal(version.Sessions, &sessions); err != nil {
			return export.Dataset{}, "", fmt.Errorf("decode timetable sessions: %w", err)
		}
	}

	headers := []string{"Day", "Start", "End", "Type", "Subject/Lab", "Teacher(s)", "Room"}
	rows := make([]map[string]string, 0, len(sessions.TheorySessions)+len(sessions.LabSessions))

	for _, row := range sessions.TheorySessions {
		rows = append(rows, map[string]string{
			"Day":         weekdayName(row.Day),
			"Start":       minutesToClock(row.Start),
			"End":         minutesToClock(row.End),
			"Type":        "Theory",
			"Subject/Lab": row.SubjectID,
			"Teacher(s)":  derefOrDash(row.TeacherID),
			"Room":        derefOrDash(row.ClassroomID),
		})
	}
	for _, row := range sessions.LabSessions {
		rooms := make([]string, 0, len(row.Batches))
		teachers := make([]string, 0, len(row.Batches)*2)
		labIDs := make([]string, 0, len(row.Batches))
		for _, b := range row.Batches {
			labIDs = append(labIDs, b.LabID)
			if b.LabRoomID != nil {
				rooms = append(rooms, *b.LabRoomID)
			}
			if b.Teacher1ID != nil {
				teachers = append(teachers, *b.Teacher1ID)
			}
			if b.Teacher2ID != nil {
				teachers = append(teachers, *b.Teacher2ID)
			}
		}
		rows = append(rows, map[string]string{
			"Day":         weekdayName(row.Day),
			"Start":       minutesToClock(row.Start),
			"End":         minutesToClock(row.End),
			"Type":        fmt.Sprintf("Lab (round %d)", row.Round),
			"Subject/Lab": strings.Join(dedupStrings(labIDs), ", "),
			"Teacher(s)":  strings.Join(dedupStrings(teachers), ", "),
			"Room":        strings.Join(dedupStrings(rooms), ", "),
		})
	}

	dataset := export.Dataset{Headers: headers, Rows: rows}
	title := fmt.Sprintf("Timetable %s v%d", version.SectionID, version.Version)
	return dataset, title, nil
}

func derefOrDash(ptr *string) string {
	if ptr == nil || *ptr == "" {
		return "-"
	}
	return *ptr
}

func minutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

var weekdayNames = map[int]string{1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday", 5: "Friday"}

func weekdayName(day int) string {
	if name, ok := weekdayNames[day]; ok {
		return name
	}
	return fmt.Sprintf("Day %d", day)
}

func dedupStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
