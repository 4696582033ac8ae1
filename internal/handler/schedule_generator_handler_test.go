package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
)

type scheduleGeneratorMock struct {
	generateResp *dto.GenerateTimetablesResponse
	saveResp     *dto.SaveTimetablesResponse
	listResp     []models.TimetableVersion
	getResp      *dto.TimetableVersionDetailDTO
	err          error
}

func (m *scheduleGeneratorMock) Generate(ctx context.Context, req dto.GenerateTimetablesRequest) (*dto.GenerateTimetablesResponse, error) {
	return m.generateResp, m.err
}

func (m *scheduleGeneratorMock) Save(ctx context.Context, req dto.SaveTimetablesRequest) (*dto.SaveTimetablesResponse, error) {
	return m.saveResp, m.err
}

func (m *scheduleGeneratorMock) List(ctx context.Context, termID, sectionID string) ([]models.TimetableVersion, error) {
	return m.listResp, m.err
}

func (m *scheduleGeneratorMock) Get(ctx context.Context, id string) (*dto.TimetableVersionDetailDTO, error) {
	return m.getResp, m.err
}

func (m *scheduleGeneratorMock) Publish(ctx context.Context, id string) error { return m.err }
func (m *scheduleGeneratorMock) Archive(ctx context.Context, id string) error { return m.err }
func (m *scheduleGeneratorMock) Delete(ctx context.Context, id string) error  { return m.err }

func newGeneratorTestContext(method, target string, body []byte) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return w, c
}

func TestScheduleGeneratorHandlerGenerate(t *testing.T) {
	mock := &scheduleGeneratorMock{generateResp: &dto.GenerateTimetablesResponse{AcademicYear: "2026"}}
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = mock

	w, c := newGeneratorTestContext(http.MethodPost, "/schedules/generator", []byte(`{"term_id":"term-1"}`))
	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleGeneratorHandlerGenerateInvalidPayload(t *testing.T) {
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = &scheduleGeneratorMock{}

	w, c := newGeneratorTestContext(http.MethodPost, "/schedules/generator", []byte(`not-json`))
	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorHandlerSave(t *testing.T) {
	mock := &scheduleGeneratorMock{saveResp: &dto.SaveTimetablesResponse{GenerationRunID: "run-1"}}
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = mock

	w, c := newGeneratorTestContext(http.MethodPost, "/schedules/generator/save", []byte(`{"term_id":"term-1"}`))
	handler.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestScheduleGeneratorHandlerListRequiresParams(t *testing.T) {
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = &scheduleGeneratorMock{}

	w, c := newGeneratorTestContext(http.MethodGet, "/timetable-versions", nil)
	handler.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorHandlerList(t *testing.T) {
	mock := &scheduleGeneratorMock{listResp: []models.TimetableVersion{{ID: "v1"}}}
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = mock

	w, c := newGeneratorTestContext(http.MethodGet, "/timetable-versions?term_id=term-1&section_id=sec-1", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleGeneratorHandlerGetVersion(t *testing.T) {
	mock := &scheduleGeneratorMock{getResp: &dto.TimetableVersionDetailDTO{ID: "v1"}}
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = mock

	w, c := newGeneratorTestContext(http.MethodGet, "/timetable-versions/v1", nil)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleGeneratorHandlerGetVersionNotFound(t *testing.T) {
	mock := &scheduleGeneratorMock{err: appErrors.ErrNotFound}
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = mock

	w, c := newGeneratorTestContext(http.MethodGet, "/timetable-versions/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleGeneratorHandlerPublish(t *testing.T) {
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = &scheduleGeneratorMock{}

	w, c := newGeneratorTestContext(http.MethodPost, "/timetable-versions/v1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	handler.Publish(c)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestScheduleGeneratorHandlerPublishBlocked(t *testing.T) {
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = &scheduleGeneratorMock{err: appErrors.ErrValidatorWarning}

	w, c := newGeneratorTestContext(http.MethodPost, "/timetable-versions/v1/publish", nil)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	handler.Publish(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestScheduleGeneratorHandlerArchive(t *testing.T) {
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = &scheduleGeneratorMock{}

	w, c := newGeneratorTestContext(http.MethodPost, "/timetable-versions/v1/archive", nil)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	handler.Archive(c)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestScheduleGeneratorHandlerDelete(t *testing.T) {
	handler := NewScheduleGeneratorHandler(nil)
	handler.service = &scheduleGeneratorMock{}

	w, c := newGeneratorTestContext(http.MethodDelete, "/timetable-versions/v1", nil)
	c.Params = gin.Params{{Key: "id", Value: "v1"}}
	handler.Delete(c)

	require.Equal(t, http.StatusNoContent, w.Code)
}
