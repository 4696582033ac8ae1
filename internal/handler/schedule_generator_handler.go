package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetablesRequest) (*dto.GenerateTimetablesResponse, error)
	Save(ctx context.Context, req dto.SaveTimetablesRequest) (*dto.SaveTimetablesResponse, error)
	List(ctx context.Context, termID, sectionID string) ([]models.TimetableVersion, error)
	Get(ctx context.Context, id string) (*dto.TimetableVersionDetailDTO, error)
	Publish(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ScheduleGeneratorHandler exposes timetable generation and version
// lifecycle endpoints over the seven-stage placement pipeline.
type ScheduleGeneratorHandler struct {
	service scheduleGenerator
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Preview a generated set of timetables for a term
// @Description Runs the placement pipeline without persisting anything.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetablesRequest true "Generate payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generator [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Generate and persist a draft timetable version per section
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveTimetablesRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/generator/save [post]
func (h *ScheduleGeneratorHandler) Save(c *gin.Context) {
	var req dto.SaveTimetablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List timetable versions for a term-section tuple
// @Tags Scheduler
// @Produce json
// @Param term_id query string true "Term ID"
// @Param section_id query string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /timetable-versions [get]
func (h *ScheduleGeneratorHandler) List(c *gin.Context) {
	termID := c.Query("term_id")
	sectionID := c.Query("section_id")
	if termID == "" || sectionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term_id and section_id are required"))
		return
	}
	versions, err := h.service.List(c.Request.Context(), termID, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// Get godoc
// @Summary Get a single timetable version's sessions and flags
// @Tags Scheduler
// @Produce json
// @Param id path string true "Timetable version ID"
// @Success 200 {object} response.Envelope
// @Router /timetable-versions/{id} [get]
func (h *ScheduleGeneratorHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Publish godoc
// @Summary Publish a draft timetable version
// @Tags Scheduler
// @Param id path string true "Timetable version ID"
// @Success 204
// @Router /timetable-versions/{id}/publish [post]
func (h *ScheduleGeneratorHandler) Publish(c *gin.Context) {
	if err := h.service.Publish(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Archive godoc
// @Summary Archive a timetable version
// @Tags Scheduler
// @Param id path string true "Timetable version ID"
// @Success 204
// @Router /timetable-versions/{id}/archive [post]
func (h *ScheduleGeneratorHandler) Archive(c *gin.Context) {
	if err := h.service.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a draft or archived timetable version
// @Tags Scheduler
// @Param id path string true "Timetable version ID"
// @Success 204
// @Router /timetable-versions/{id} [delete]
func (h *ScheduleGeneratorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
