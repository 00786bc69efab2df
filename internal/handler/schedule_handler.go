package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/models"
	"github.com/acadplan/timetable-api/internal/service"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
	"github.com/acadplan/timetable-api/pkg/response"
)

// ScheduleHandler exposes timetable generation, polling, role-scoped reads,
// reschedule, reset and export.
type ScheduleHandler struct {
	generator *service.GeneratorService
	query     *service.QueryService
	exporter  *service.ExportService
}

// NewScheduleHandler creates a new handler.
func NewScheduleHandler(generator *service.GeneratorService, query *service.QueryService, exporter *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{generator: generator, query: query, exporter: exporter}
}

// Generate godoc
// @Summary Trigger schedule generation
// @Description Start an asynchronous generation run for one semester/year key
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateScheduleRequest true "Generation scope"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	if req.Semester < 1 || req.Semester > 2 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2"))
		return
	}
	if req.Year < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a positive integer"))
		return
	}

	if err := h.generator.Generate(c.Request.Context(), req.Semester, req.Year); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.ScheduleStatusResponse{
		Semester: req.Semester,
		Year:     req.Year,
		Status:   models.StatusInProgress,
	})
}

// Status godoc
// @Summary Poll generation status
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param semester query int true "Semester"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /schedule/status [get]
func (h *ScheduleHandler) Status(c *gin.Context) {
	semester, year, err := parseTermScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.query.GetStatus(c.Request.Context(), semester, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Timetables godoc
// @Summary Full timetable
// @Description Admin view over all generated rows for a scope
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param semester query int true "Semester"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /schedule/timetables [get]
func (h *ScheduleHandler) Timetables(c *gin.Context) {
	semester, year, err := parseTermScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.query.ListResults(c.Request.Context(), models.ResultFilter{Semester: semester, Year: year})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// My godoc
// @Summary Student timetable
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param semester query int true "Semester"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /schedule/my [get]
func (h *ScheduleHandler) My(c *gin.Context) {
	semester, year, err := parseTermScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.query.ListForStudent(c.Request.Context(), semester, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Instructor godoc
// @Summary Instructor timetable
// @Description Rows taught by the authenticated instructor
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param semester query int true "Semester"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /schedule/instructor [get]
func (h *ScheduleHandler) Instructor(c *gin.Context) {
	semester, year, err := parseTermScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	results, err := h.query.ListForInstructor(c.Request.Context(), semester, year, claims.ProfileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Reschedule godoc
// @Summary Reschedule one course
// @Description Move a scheduled course onto one of its instructor's preferred slots
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RescheduleRequest true "Target result row"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedule/reschedule [post]
func (h *ScheduleHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ResultID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "result_id is required"))
		return
	}
	requestedBy := ""
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleInstructor {
		if claims.ProfileID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to an instructor profile"))
			return
		}
		requestedBy = claims.ProfileID
	}
	moved, err := h.generator.Reschedule(c.Request.Context(), req.ResultID, requestedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, moved, nil)
}

// Reset godoc
// @Summary Reset all schedule data
// @Description Delete every result and status row across all keys
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /schedule/reset [delete]
func (h *ScheduleHandler) Reset(c *gin.Context) {
	if err := h.query.Reset(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export timetable
// @Description Download the generated timetable as CSV or PDF
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param semester query int true "Semester"
// @Param year query int true "Year"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	semester, year, err := parseTermScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	raw, contentType, err := h.exporter.Render(c.Request.Context(), semester, year, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("timetable_s%d_y%d.%s", semester, year, ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, raw)
}
