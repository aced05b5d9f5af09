package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-engine/internal/dto"
	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
	"github.com/noah-isme/lesson-engine/pkg/response"
)

type substitutionService interface {
	Create(ctx context.Context, req dto.CreateSubstitutionRequest, requestedBy string) (*models.SubstitutionRequest, error)
	Approve(ctx context.Context, id, approverID string) (*models.SubstitutionRequest, error)
	Complete(ctx context.Context, id string) (*models.SubstitutionRequest, error)
	Cancel(ctx context.Context, id string) (*models.SubstitutionRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.SubstitutionRequest, error)
	List(ctx context.Context, query dto.SubstitutionQuery, actor *models.JWTClaims) ([]models.SubstitutionRequest, *models.Pagination, error)
}

// SubstitutionHandler exposes the substitute teacher workflow.
type SubstitutionHandler struct {
	service substitutionService
}

// NewSubstitutionHandler constructs the handler.
func NewSubstitutionHandler(service substitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{service: service}
}

// Create godoc
// @Summary Request a substitute teacher
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubstitutionRequest true "Substitution payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /substitutions [post]
func (h *SubstitutionHandler) Create(c *gin.Context) {
	var req dto.CreateSubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid substitution payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	created, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		h.renderError(c, nil, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List substitution requests
// @Tags Substitutions
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param branch_id query string false "Branch ID"
// @Param teacher_id query string false "Original teacher ID"
// @Param substitute_teacher_id query string false "Substitute teacher ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /substitutions [get]
func (h *SubstitutionHandler) List(c *gin.Context) {
	var query dto.SubstitutionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid substitution query"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a substitution request
// @Tags Substitutions
// @Produce json
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Approve godoc
// @Summary Approve a pending substitution
// @Description Re-checks the substitute's schedule. A STALE_APPROVAL error carries the unchanged request and the blocking ids.
// @Tags Substitutions
// @Produce json
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /substitutions/{id}/approve [post]
func (h *SubstitutionHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		h.renderError(c, item, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Complete godoc
// @Summary Mark an approved substitution as completed
// @Tags Substitutions
// @Produce json
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/complete [post]
func (h *SubstitutionHandler) Complete(c *gin.Context) {
	item, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Cancel godoc
// @Summary Cancel a pending or approved substitution
// @Tags Substitutions
// @Produce json
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/cancel [post]
func (h *SubstitutionHandler) Cancel(c *gin.Context) {
	item, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// renderError attaches the blocking ids when the substitute is busy.
func (h *SubstitutionHandler) renderError(c *gin.Context, current *models.SubstitutionRequest, err error) {
	var busy *models.StaleApprovalError
	if errors.As(err, &busy) {
		response.ErrorWithData(c, err, dto.StaleApprovalResponse{
			Request:             current,
			ConflictingSessions: busy.ConflictingSessions,
			ConflictingRequests: busy.ConflictingRequests,
		})
		return
	}
	response.Error(c, err)
}
