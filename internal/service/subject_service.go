package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByShortform(ctx context.Context, shortform string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	CountTeacherAssignments(ctx context.Context, id string) (int, error)
}

// CreateSubjectRequest captures fields for creating subjects.
type CreateSubjectRequest struct {
	Shortform              string  `json:"shortform" validate:"required,max=10"`
	HoursPerWeek           float64 `json:"hours_per_week" validate:"required,gt=0"`
	MaxHoursPerDay         float64 `json:"max_hours_per_day" validate:"required,gt=0"`
	RequiresTeacher        bool    `json:"requires_teacher"`
	IsProject              bool    `json:"is_project"`
	IsOpenElective         bool    `json:"is_open_elective"`
	IsProfessionalElective bool    `json:"is_professional_elective"`
	IsExternalDept         bool    `json:"is_external_dept"`
	FixedSemester          *int    `json:"fixed_semester"`
	FixedDay               *int    `json:"fixed_day" validate:"omitempty,min=1,max=6"`
	FixedStartText         *string `json:"fixed_start_text"`
	FixedEndText           *string `json:"fixed_end_text"`
}

// UpdateSubjectRequest modifies subject fields.
type UpdateSubjectRequest struct {
	Shortform              string  `json:"shortform" validate:"required,max=10"`
	HoursPerWeek           float64 `json:"hours_per_week" validate:"required,gt=0"`
	MaxHoursPerDay         float64 `json:"max_hours_per_day" validate:"required,gt=0"`
	RequiresTeacher        bool    `json:"requires_teacher"`
	IsProject              bool    `json:"is_project"`
	IsOpenElective         bool    `json:"is_open_elective"`
	IsProfessionalElective bool    `json:"is_professional_elective"`
	IsExternalDept         bool    `json:"is_external_dept"`
	FixedSemester          *int    `json:"fixed_semester"`
	FixedDay               *int    `json:"fixed_day" validate:"omitempty,min=1,max=6"`
	FixedStartText         *string `json:"fixed_start_text"`
	FixedEndText           *string `json:"fixed_end_text"`
}

// SubjectService handles subject domain workflows.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return subjects, pagination, nil
}

// Get returns subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a new subject ensuring shortform uniqueness.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := validateFixedSchedule(req.FixedDay, req.FixedStartText, req.FixedEndText); err != nil {
		return nil, err
	}

	shortform := strings.ToUpper(strings.TrimSpace(req.Shortform))

	exists, err := s.repo.ExistsByShortform(ctx, shortform, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject shortform")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject shortform already exists")
	}

	subject := &models.Subject{
		Shortform:              shortform,
		HoursPerWeek:           req.HoursPerWeek,
		MaxHoursPerDay:         req.MaxHoursPerDay,
		RequiresTeacher:        req.RequiresTeacher,
		IsProject:              req.IsProject,
		IsOpenElective:         req.IsOpenElective,
		IsProfessionalElective: req.IsProfessionalElective,
		IsExternalDept:         req.IsExternalDept,
		FixedSemester:          req.FixedSemester,
		FixedDay:               req.FixedDay,
		FixedStartText:         req.FixedStartText,
		FixedEndText:           req.FixedEndText,
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := validateFixedSchedule(req.FixedDay, req.FixedStartText, req.FixedEndText); err != nil {
		return nil, err
	}

	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	shortform := strings.ToUpper(strings.TrimSpace(req.Shortform))

	exists, err := s.repo.ExistsByShortform(ctx, shortform, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject shortform")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject shortform already exists")
	}

	subject.Shortform = shortform
	subject.HoursPerWeek = req.HoursPerWeek
	subject.MaxHoursPerDay = req.MaxHoursPerDay
	subject.RequiresTeacher = req.RequiresTeacher
	subject.IsProject = req.IsProject
	subject.IsOpenElective = req.IsOpenElective
	subject.IsProfessionalElective = req.IsProfessionalElective
	subject.IsExternalDept = req.IsExternalDept
	subject.FixedSemester = req.FixedSemester
	subject.FixedDay = req.FixedDay
	subject.FixedStartText = req.FixedStartText
	subject.FixedEndText = req.FixedEndText

	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject when no teacher assignments reference it.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	count, err := s.repo.CountTeacherAssignments(ctx, subject.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject has teacher assignments")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

// validateFixedSchedule requires a fixed day and time window together or not at all.
func validateFixedSchedule(day *int, start, end *string) error {
	set := 0
	if day != nil {
		set++
	}
	if start != nil {
		set++
	}
	if end != nil {
		set++
	}
	if set != 0 && set != 3 {
		return appErrors.Clone(appErrors.ErrValidation, "fixed_day, fixed_start_text and fixed_end_text must be set together")
	}
	return nil
}
