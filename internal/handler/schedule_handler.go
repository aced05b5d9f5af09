package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-engine/internal/dto"
	"github.com/noah-isme/lesson-engine/internal/middleware"
	"github.com/noah-isme/lesson-engine/internal/models"
	"github.com/noah-isme/lesson-engine/internal/service"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
	"github.com/noah-isme/lesson-engine/pkg/export"
	"github.com/noah-isme/lesson-engine/pkg/response"
)

type scheduleInsightService interface {
	DetectSnapshot(ctx context.Context, req dto.DetectConflictsRequest) (models.ConflictReport, error)
	BranchConflicts(ctx context.Context, branchID string, query dto.BranchConflictsQuery) (models.ConflictReport, bool, error)
	ClassroomUtilization(ctx context.Context, classroomID string, query dto.UtilizationQuery) (models.UtilizationReport, error)
	BranchUtilization(ctx context.Context, branchID string, query dto.UtilizationQuery) ([]models.UtilizationReport, error)
	ExportBranchUtilization(ctx context.Context, branchID string, query dto.UtilizationQuery, format export.Format) (string, []byte, error)
	TeacherAvailability(ctx context.Context, req dto.TeacherAvailabilityRequest) (models.AvailabilityResult, error)
	StudentAvailability(ctx context.Context, req dto.StudentAvailabilityRequest) ([]models.StudentSlotCheck, error)
}

type sweepReporter interface {
	Last() *service.SweepResult
}

// ScheduleHandler exposes conflict, utilization and availability queries.
type ScheduleHandler struct {
	service scheduleInsightService
	sweeper sweepReporter
}

// NewScheduleHandler constructs the handler. sweeper may be nil when the sweep is disabled.
func NewScheduleHandler(service scheduleInsightService, sweeper sweepReporter) *ScheduleHandler {
	return &ScheduleHandler{service: service, sweeper: sweeper}
}

// DetectConflicts godoc
// @Summary Detect conflicts in a session snapshot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.DetectConflictsRequest true "Session snapshot"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedule/conflicts [post]
func (h *ScheduleHandler) DetectConflicts(c *gin.Context) {
	var req dto.DetectConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session snapshot"))
		return
	}
	report, err := h.service.DetectSnapshot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil, map[string]interface{}{"total_groups": report.Total()})
}

// BranchConflicts godoc
// @Summary Detect conflicts among stored sessions of a branch
// @Tags Schedule
// @Produce json
// @Param id path string true "Branch ID"
// @Param from query string true "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /branches/{id}/conflicts [get]
func (h *ScheduleHandler) BranchConflicts(c *gin.Context) {
	var query dto.BranchConflictsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid conflict query"))
		return
	}
	report, hit, err := h.service.BranchConflicts(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetMeta(c, "total_groups", report.Total())
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// LatestSweep godoc
// @Summary Latest scheduled conflict sweep
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /conflicts/sweep [get]
func (h *ScheduleHandler) LatestSweep(c *gin.Context) {
	if h.sweeper == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "conflict sweep is disabled"))
		return
	}
	result := h.sweeper.Last()
	if result == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no sweep has run yet"))
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ClassroomUtilization godoc
// @Summary Classroom utilization for a day
// @Tags Utilization
// @Produce json
// @Param id path string true "Classroom ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param window_start query string false "Window start (HH:MM)"
// @Param window_end query string false "Window end (HH:MM)"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/utilization [get]
func (h *ScheduleHandler) ClassroomUtilization(c *gin.Context) {
	var query dto.UtilizationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid utilization query"))
		return
	}
	report, err := h.service.ClassroomUtilization(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// BranchUtilization godoc
// @Summary Utilization of every classroom in a branch
// @Tags Utilization
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Branch ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /branches/{id}/utilization [get]
func (h *ScheduleHandler) BranchUtilization(c *gin.Context) {
	var query dto.UtilizationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid utilization query"))
		return
	}
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" || format == "json" {
		reports, err := h.service.BranchUtilization(c.Request.Context(), c.Param("id"), query)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, reports, nil)
		return
	}

	exportFormat, err := export.ParseFormat(format)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	filename, payload, err := h.service.ExportBranchUtilization(c.Request.Context(), c.Param("id"), query, exportFormat)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, exportFormat.ContentType(), payload)
}

// TeacherAvailability godoc
// @Summary Partition candidate teachers for a slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.TeacherAvailabilityRequest true "Slot and candidates"
// @Success 200 {object} response.Envelope
// @Router /availability/teachers [post]
func (h *ScheduleHandler) TeacherAvailability(c *gin.Context) {
	var req dto.TeacherAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid availability payload"))
		return
	}
	result, err := h.service.TeacherAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// StudentAvailability godoc
// @Summary Check students against a slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.StudentAvailabilityRequest true "Slot and students"
// @Success 200 {object} response.Envelope
// @Router /availability/students [post]
func (h *ScheduleHandler) StudentAvailability(c *gin.Context) {
	var req dto.StudentAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid availability payload"))
		return
	}
	checks, err := h.service.StudentAvailability(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checks, nil)
}
