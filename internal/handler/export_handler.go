package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-api/internal/service"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

// ExportHandler exposes CSV/PDF rendering of a persisted timetable version
// and the signed-URL download that follows, mirroring the teacher's own
// report generate/download split against the scheduler's own output
// instead of the analytics reports it originally served. A version's
// rendering is immutable once generated, so repeat requests for the same
// id+format are served out of cache instead of re-rendering the PDF/CSV.
type ExportHandler struct {
	service *service.ExportService
	cache   *service.CacheService
}

// NewExportHandler constructs the handler. cache may be nil, in which case
// every request re-renders.
func NewExportHandler(svc *service.ExportService, cache *service.CacheService) *ExportHandler {
	return &ExportHandler{service: svc, cache: cache}
}

// Generate godoc
// @Summary Render a timetable version to CSV or PDF
// @Tags Export
// @Produce json
// @Param id path string true "Timetable version ID"
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /timetable-versions/{id}/export [post]
func (h *ExportHandler) Generate(c *gin.Context) {
	id := c.Param("id")
	format := service.ExportFormat(c.Query("format"))
	if format != service.ExportFormatCSV && format != service.ExportFormatPDF {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	cacheKey := fmt.Sprintf("export:%s:%s", id, format)
	var cached service.ExportResult
	if hit, _ := h.cache.Get(c.Request.Context(), cacheKey, &cached); hit {
		response.JSON(c, http.StatusOK, cached, nil)
		return
	}

	result, err := h.service.Generate(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	_ = h.cache.Set(c.Request.Context(), cacheKey, result, 0)
	response.JSON(c, http.StatusOK, result, nil)
}

// Download godoc
// @Summary Download a previously generated export via its signed token
// @Tags Export
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Param("token")
	_, relPath, _, err := h.service.ParseToken(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export link is invalid or expired"))
		return
	}
	f, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file is no longer available"))
		return
	}
	path := f.Name()
	f.Close()
	c.Header("Content-Disposition", "attachment")
	c.File(path)
}
