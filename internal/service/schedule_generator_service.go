package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/config"
)

type schedulerTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type timetableVersionRepo interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion) error
	ListByTermSection(ctx context.Context, termID, sectionID string) ([]models.TimetableVersion, error)
	FindByID(ctx context.Context, id string) (*models.TimetableVersion, error)
	FindPublished(ctx context.Context, termID, sectionID string) (*models.TimetableVersion, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableVersionStatus) error
	ArchivePublished(ctx context.Context, exec sqlx.ExtContext, termID, sectionID string) error
	RecordGenerationRun(ctx context.Context, run *models.GenerationRun) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// defaultTermResolver supplies the term a generate/save request should run
// against when the caller omits one.
type defaultTermResolver interface {
	GetDefaultScheduleGenerationTermID(ctx context.Context) (string, error)
}

// ScheduleGeneratorService runs the seven-stage placement pipeline (and,
// optionally, the MetaRefiner local-search pass) against a term's snapshot
// and persists the result as versioned per-section timetables.
type ScheduleGeneratorService struct {
	terms     schedulerTermReader
	loader    *snapshotLoader
	versions  timetableVersionRepo
	tx        txProvider
	scheduler config.SchedulerConfig
	refiner   config.RefinerTuning
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	defaultTerm defaultTermResolver
}

// NewScheduleGeneratorService wires the generation pipeline's dependencies.
func NewScheduleGeneratorService(
	terms schedulerTermReader,
	sections snapshotSectionRepo,
	subjects snapshotSubjectRepo,
	labs snapshotLabRepo,
	classrooms snapshotClassroomRepo,
	labRooms snapshotLabRoomRepo,
	teachers snapshotTeacherRepo,
	assignments snapshotTeacherAssignmentRepo,
	labBatchPref snapshotLabBatchPreferenceRepo,
	versions timetableVersionRepo,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	schedulerCfg config.SchedulerConfig,
	refinerCfg config.RefinerTuning,
	metrics *MetricsService,
	defaultTerm defaultTermResolver,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGeneratorService{
		terms:     terms,
		loader:    newSnapshotLoader(sections, subjects, labs, classrooms, labRooms, teachers, assignments, labBatchPref),
		versions:  versions,
		tx:        tx,
		scheduler: schedulerCfg,
		refiner:   refinerCfg,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		defaultTerm: defaultTerm,
	}
}

func (s *ScheduleGeneratorService) resolveTerm(ctx context.Context, termID string) (*models.Term, error) {
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}

func (s *ScheduleGeneratorService) refinerOptions(requested bool) *scheduler.RefinerConfig {
	if !requested || !s.scheduler.RefineEnabled {
		return nil
	}
	return &scheduler.RefinerConfig{
		PopulationSize: s.refiner.PopulationSize,
		TournamentSize: s.refiner.TournamentSize,
		ElitismCount:   s.refiner.ElitismCount,
		MutationRate:   s.refiner.MutationRate,
		CrossoverRate:  s.refiner.CrossoverRate,
		Generations:    s.refiner.Generations,
		SwarmCycles:    s.refiner.SwarmCycles,
		ScoutLimit:     s.refiner.ScoutLimit,
		Workers:        s.refiner.Workers,
		Timeout:        s.refiner.Timeout,
	}
}

func (s *ScheduleGeneratorService) runPipeline(ctx context.Context, termID string, seed *int64, refine bool) (*models.Term, *scheduler.PipelineResult, error) {
	if termID == "" {
		if s.defaultTerm == nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "term_id is required")
		}
		resolved, err := s.defaultTerm.GetDefaultScheduleGenerationTermID(ctx)
		if err != nil {
			return nil, nil, err
		}
		termID = resolved
	}

	term, err := s.resolveTerm(ctx, termID)
	if err != nil {
		return nil, nil, err
	}

	snap, sections, err := s.loader.Load(ctx, models.TermParity(term.Parity))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation snapshot")
	}
	if len(sections) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no sections exist for this term")
	}

	runSeed := s.scheduler.DefaultSeed
	if seed != nil {
		runSeed = *seed
	}

	opts := scheduler.PipelineOptions{
		Sections:     sections,
		Term:         scheduler.TermParity(term.Parity),
		AcademicYear: term.AcademicYear,
		Seed:         runSeed,
		Refine:       s.refinerOptions(refine),
	}

	result, err := scheduler.GenerateAll(snap, opts)
	if err != nil {
		var schedErr *scheduler.Error
		if errors.As(err, &schedErr) {
			return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, schedErr.Message)
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pipeline run failed")
	}
	s.metrics.RecordSchedulerRun(result)
	return term, result, nil
}

// Generate runs the pipeline and returns a preview, without persisting
// anything.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetablesRequest) (*dto.GenerateTimetablesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	term, result, err := s.runPipeline(ctx, req.TermID, req.Seed, req.Refine)
	if err != nil {
		return nil, err
	}

	resp := &dto.GenerateTimetablesResponse{
		AcademicYear: term.AcademicYear,
		Term:         string(term.Parity),
		Seed:         pipelineSeed(req.Seed, s.scheduler.DefaultSeed),
		StageSummary: toStageSummaryDTOs(result.Summaries),
	}
	if result.Refined != nil {
		resp.Refined = true
		resp.BestFitness = &result.Refined.BestFitness
		resp.TimedOut = result.Refined.TimedOut
	}
	for _, id := range result.Store.SectionIDs() {
		resp.Timetables = append(resp.Timetables, toTimetablePreview(result.Store.Timetables[id]))
	}
	return resp, nil
}

// Save runs the pipeline and persists one DRAFT TimetableVersion per
// section, plus a GenerationRun audit row.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveTimetablesRequest) (*dto.SaveTimetablesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}

	startedAt := time.Now().UTC()
	term, result, err := s.runPipeline(ctx, req.TermID, req.Seed, req.Refine)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start save transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	seed := pipelineSeed(req.Seed, s.scheduler.DefaultSeed)
	summaries := make([]dto.TimetableVersionSummaryDTO, 0, len(result.Store.SectionIDs()))
	for _, sectionID := range result.Store.SectionIDs() {
		tt := result.Store.Timetables[sectionID]
		sessions, err := marshalSessions(tt)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable sessions")
		}
		flags, err := marshalFlags(tt.FlaggedSessions)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable flags")
		}

		version := &models.TimetableVersion{
			TermID:    term.ID,
			SectionID: sectionID,
			Status:    models.TimetableVersionDraft,
			Seed:      seed,
			Sessions:  sessions,
			Flags:     flags,
		}
		if err := s.versions.CreateVersioned(ctx, tx, version); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable version")
		}
		summaries = append(summaries, dto.TimetableVersionSummaryDTO{
			ID:               version.ID,
			SectionID:        sectionID,
			Version:          version.Version,
			Status:           string(version.Status),
			ValidationStatus: string(tt.Metadata.ValidationStatus),
			CreatedAt:        version.CreatedAt,
		})
	}

	run := &models.GenerationRun{
		TermID:     term.ID,
		Seed:       seed,
		Refined:    result.Refined != nil,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}
	if result.Refined != nil {
		run.BestFitness = result.Refined.BestFitness
	}
	if req.TriggeredBy != nil {
		run.TriggeredBy = req.TriggeredBy
	}
	if err := s.versions.RecordGenerationRun(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation run")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit save transaction")
	}

	resp := &dto.SaveTimetablesResponse{
		GenerationRunID: run.ID,
		Versions:        summaries,
	}
	if result.Refined != nil {
		resp.BestFitness = &result.Refined.BestFitness
	}
	return resp, nil
}

// List returns the stored versions for a term-section tuple, newest first.
func (s *ScheduleGeneratorService) List(ctx context.Context, termID, sectionID string) ([]models.TimetableVersion, error) {
	versions, err := s.versions.ListByTermSection(ctx, termID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable versions")
	}
	return versions, nil
}

// Get loads a single version and decodes its persisted sessions/flags.
func (s *ScheduleGeneratorService) Get(ctx context.Context, id string) (*dto.TimetableVersionDetailDTO, error) {
	version, err := s.versions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	return toVersionDetail(version)
}

// Publish promotes a DRAFT version to PUBLISHED, archiving whatever was
// previously published for the same term-section tuple.
func (s *ScheduleGeneratorService) Publish(ctx context.Context, id string) error {
	version, err := s.versions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}

	var flags []models.FlagRow
	if err := json.Unmarshal(version.Flags, &flags); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode timetable flags")
	}
	if hasBlockingFlag(flags) {
		return appErrors.Clone(appErrors.ErrValidatorWarning, "timetable has unresolved placements and cannot be published")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start publish transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.versions.ArchivePublished(ctx, tx, version.TermID, version.SectionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive published version")
	}
	if err := s.versions.UpdateStatus(ctx, tx, id, models.TimetableVersionPublished); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable version")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit publish transaction")
	}
	return nil
}

// Archive transitions a version to ARCHIVED directly (e.g. retracting a
// published timetable without promoting a replacement).
func (s *ScheduleGeneratorService) Archive(ctx context.Context, id string) error {
	if err := s.versions.UpdateStatus(ctx, nil, id, models.TimetableVersionArchived); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive timetable version")
	}
	return nil
}

// Delete removes a stored version. Published versions must be archived first.
func (s *ScheduleGeneratorService) Delete(ctx context.Context, id string) error {
	version, err := s.versions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	if version.Status == models.TimetableVersionPublished {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "published timetable version must be archived before deletion")
	}
	if err := s.versions.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable version")
	}
	return nil
}

func pipelineSeed(seed *int64, fallback int64) int64 {
	if seed != nil {
		return *seed
	}
	return fallback
}

func hasBlockingFlag(flags []models.FlagRow) bool {
	for _, f := range flags {
		switch scheduler.FlagKind(f.Kind) {
		case scheduler.FlagUnresolvedLabRound, scheduler.FlagUnplacedTheorySession, scheduler.FlagTeacherConflict,
			scheduler.FlagClassroomConflict, scheduler.FlagLabRoomConflict:
			return true
		}
	}
	return false
}

func toStageSummaryDTOs(summaries []scheduler.StageSummary) []dto.StageSummaryDTO {
	out := make([]dto.StageSummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, dto.StageSummaryDTO{
			Stage:      string(s.Stage),
			Placements: s.Placements,
			Unresolved: s.Unresolved,
			Notes:      s.Notes,
		})
	}
	return out
}

func toTimetablePreview(tt *scheduler.Timetable) dto.TimetablePreviewDTO {
	preview := dto.TimetablePreviewDTO{
		SectionID:        tt.SectionID,
		SectionName:      tt.SectionName,
		Semester:         tt.Semester,
		Term:             string(tt.Term),
		AcademicYear:     tt.AcademicYear,
		ValidationStatus: string(tt.Metadata.ValidationStatus),
	}
	for _, ts := range tt.TheorySessions {
		preview.TheorySessions = append(preview.TheorySessions, toTheoryDTO(ts))
	}
	for _, ls := range tt.LabSessions {
		preview.LabSessions = append(preview.LabSessions, toLabDTO(ls))
	}
	for _, f := range tt.FlaggedSessions {
		preview.Flags = append(preview.Flags, toFlagDTO(f))
	}
	return preview
}

func toTheoryDTO(ts scheduler.TheorySession) dto.TheorySessionDTO {
	return dto.TheorySessionDTO{
		ID:            ts.ID,
		SectionID:     ts.SectionID,
		SubjectID:     ts.SubjectID,
		TeacherID:     ts.TeacherID,
		ClassroomID:   ts.ClassroomID,
		Day:           int(ts.Day),
		Start:         ts.Start,
		End:           ts.End,
		DurationHours: ts.DurationHours,
		IsFixed:       ts.IsFixed,
	}
}

func toLabDTO(ls scheduler.LabSession) dto.LabSessionDTO {
	out := dto.LabSessionDTO{
		ID:            ls.ID,
		SectionID:     ls.SectionID,
		Day:           int(ls.Day),
		Start:         ls.Start,
		End:           ls.End,
		DurationHours: ls.DurationHours,
		Round:         ls.Round,
	}
	for _, b := range ls.Batches {
		out.Batches = append(out.Batches, dto.BatchAssignmentDTO{
			BatchNumber: b.BatchNumber,
			LabID:       b.LabID,
			LabRoomID:   b.LabRoomID,
			Teacher1ID:  b.Teacher1ID,
			Teacher2ID:  b.Teacher2ID,
			Status:      string(b.Status()),
		})
	}
	return out
}

func toFlagDTO(f scheduler.Flag) dto.FlagDTO {
	return dto.FlagDTO{
		Kind:      string(f.Kind),
		SectionID: f.SectionID,
		SubjectID: f.SubjectID,
		LabID:     f.LabID,
		Round:     f.Round,
		Message:   f.Message,
	}
}

func marshalSessions(tt *scheduler.Timetable) (types.JSONText, error) {
	sessions := models.TimetableSessions{}
	for _, ts := range tt.TheorySessions {
		sessions.TheorySessions = append(sessions.TheorySessions, models.TheorySessionRow{
			ID:            ts.ID,
			SectionID:     ts.SectionID,
			SubjectID:     ts.SubjectID,
			TeacherID:     ts.TeacherID,
			ClassroomID:   ts.ClassroomID,
			Day:           int(ts.Day),
			Start:         ts.Start,
			End:           ts.End,
			DurationHours: ts.DurationHours,
			IsFixed:       ts.IsFixed,
		})
	}
	for _, ls := range tt.LabSessions {
		row := models.LabSessionRow{
			ID:            ls.ID,
			SectionID:     ls.SectionID,
			Day:           int(ls.Day),
			Start:         ls.Start,
			End:           ls.End,
			DurationHours: ls.DurationHours,
			Round:         ls.Round,
		}
		for _, b := range ls.Batches {
			row.Batches = append(row.Batches, models.LabBatchRow{
				BatchNumber: b.BatchNumber,
				LabID:       b.LabID,
				LabRoomID:   b.LabRoomID,
				Teacher1ID:  b.Teacher1ID,
				Teacher2ID:  b.Teacher2ID,
			})
		}
		sessions.LabSessions = append(sessions.LabSessions, row)
	}
	encoded, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}
	return types.JSONText(encoded), nil
}

func marshalFlags(flags []scheduler.Flag) (types.JSONText, error) {
	rows := make([]models.FlagRow, 0, len(flags))
	for _, f := range flags {
		rows = append(rows, models.FlagRow{
			Kind:      string(f.Kind),
			SectionID: f.SectionID,
			SubjectID: f.SubjectID,
			LabID:     f.LabID,
			Round:     f.Round,
			Message:   f.Message,
		})
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return types.JSONText(encoded), nil
}

func toVersionDetail(version *models.TimetableVersion) (*dto.TimetableVersionDetailDTO, error) {
	var sessions models.TimetableSessions
	if err := json.Unmarshal(version.Sessions, &sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode timetable sessions")
	}
	var flags []models.FlagRow
	if len(version.Flags) > 0 {
		if err := json.Unmarshal(version.Flags, &flags); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode timetable flags")
		}
	}

	detail := &dto.TimetableVersionDetailDTO{
		ID:        version.ID,
		TermID:    version.TermID,
		SectionID: version.SectionID,
		Version:   version.Version,
		Status:    string(version.Status),
		Seed:      version.Seed,
		CreatedAt: version.CreatedAt,
		UpdatedAt: version.UpdatedAt,
	}
	for _, ts := range sessions.TheorySessions {
		detail.TheorySessions = append(detail.TheorySessions, dto.TheorySessionDTO{
			ID:            ts.ID,
			SectionID:     ts.SectionID,
			SubjectID:     ts.SubjectID,
			TeacherID:     ts.TeacherID,
			ClassroomID:   ts.ClassroomID,
			Day:           ts.Day,
			Start:         ts.Start,
			End:           ts.End,
			DurationHours: ts.DurationHours,
			IsFixed:       ts.IsFixed,
		})
	}
	for _, ls := range sessions.LabSessions {
		row := dto.LabSessionDTO{
			ID:            ls.ID,
			SectionID:     ls.SectionID,
			Day:           ls.Day,
			Start:         ls.Start,
			End:           ls.End,
			DurationHours: ls.DurationHours,
			Round:         ls.Round,
		}
		for _, b := range ls.Batches {
			row.Batches = append(row.Batches, dto.BatchAssignmentDTO{
				BatchNumber: b.BatchNumber,
				LabID:       b.LabID,
				LabRoomID:   b.LabRoomID,
				Teacher1ID:  b.Teacher1ID,
				Teacher2ID:  b.Teacher2ID,
			})
		}
		detail.LabSessions = append(detail.LabSessions, row)
	}
	for _, f := range flags {
		detail.Flags = append(detail.Flags, dto.FlagDTO{
			Kind:      f.Kind,
			SectionID: f.SectionID,
			SubjectID: f.SubjectID,
			LabID:     f.LabID,
			Round:     f.Round,
			Message:   f.Message,
		})
	}
	return detail, nil
}
