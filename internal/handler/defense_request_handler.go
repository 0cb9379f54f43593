package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/internal/service"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
	"github.com/noah-isme/gds-portal-api/pkg/response"
)

// DefenseRequestHandler exposes defense request endpoints, including the
// workflow transition and bulk operations.
type DefenseRequestHandler struct {
	requests *service.DefenseRequestService
	workflow *service.WorkflowService
	bulk     *service.BulkService
}

// NewDefenseRequestHandler constructs DefenseRequestHandler.
func NewDefenseRequestHandler(requests *service.DefenseRequestService, workflow *service.WorkflowService, bulk *service.BulkService) *DefenseRequestHandler {
	return &DefenseRequestHandler{requests: requests, workflow: workflow, bulk: bulk}
}

// respondWorkflowError renders workflow errors, attaching the structured
// detail for conflict and panel validation failures so callers can name
// the defect without a second request.
func respondWorkflowError(c *gin.Context, err error) {
	var conflictErr *models.ScheduleConflictError
	if errors.As(err, &conflictErr) {
		appErr := appErrors.Clone(appErrors.ErrConflictDetected, "")
		c.JSON(appErr.Status, response.Envelope{Error: appErr, Data: conflictErr.Report})
		return
	}
	var panelErr *models.PanelValidationError
	if errors.As(err, &panelErr) {
		appErr := appErrors.Clone(appErrors.ErrValidation, "panel composition is invalid")
		appErr.Status = http.StatusUnprocessableEntity
		c.JSON(appErr.Status, response.Envelope{Error: appErr, Data: panelErr})
		return
	}
	response.Error(c, err)
}

// List godoc
// @Summary List defense requests
// @Tags DefenseRequests
// @Produce json
// @Param state query string false "Filter by workflow state"
// @Param type query string false "Filter by defense type"
// @Param adviserId query string false "Filter by adviser"
// @Param program query string false "Filter by program"
// @Param search query string false "Search by thesis title or student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /defense-requests [get]
func (h *DefenseRequestHandler) List(c *gin.Context) {
	var filter models.DefenseRequestFilter
	filter.WorkflowState = models.WorkflowState(c.Query("state"))
	filter.DefenseType = models.DefenseType(c.Query("type"))
	filter.AdviserID = c.Query("adviserId")
	filter.CoordinatorID = c.Query("coordinatorId")
	filter.Program = c.Query("program")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	items, pagination, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get defense request detail
// @Tags DefenseRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/{id} [get]
func (h *DefenseRequestHandler) Get(c *gin.Context) {
	item, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Submit a defense request
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateDefenseRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /defense-requests [post]
func (h *DefenseRequestHandler) Create(c *gin.Context) {
	var req dto.CreateDefenseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.requests.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewDefenseRequestItem(*created))
}

// Transition godoc
// @Summary Move a request along its workflow
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /defense-requests/{id}/status [patch]
func (h *DefenseRequestHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.workflow.RequestTransition(c.Request.Context(), c.Param("id"), actorFromContext(c), req)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDefenseRequestItem(*updated), nil)
}

// AllowedTransitions godoc
// @Summary List transitions available to the caller
// @Tags DefenseRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/{id}/transitions [get]
func (h *DefenseRequestHandler) AllowedTransitions(c *gin.Context) {
	actor := actorFromContext(c)
	targets, err := h.workflow.AllowedTargets(c.Request.Context(), c.Param("id"), actor.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"targets": targets}, nil)
}

// Revert godoc
// @Summary Revert a rejection decision
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/{id}/revert [post]
func (h *DefenseRequestHandler) Revert(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&payload)
	updated, err := h.workflow.Revert(c.Request.Context(), c.Param("id"), actorFromContext(c), payload.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDefenseRequestItem(*updated), nil)
}

// Delete godoc
// @Summary Remove a defense request
// @Tags DefenseRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 204 {object} response.Envelope
// @Router /defense-requests/{id} [delete]
func (h *DefenseRequestHandler) Delete(c *gin.Context) {
	if err := h.workflow.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkStatus godoc
// @Summary Apply one transition to many requests
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param payload body dto.BulkTransitionRequest true "Bulk transition payload"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/bulk-status [post]
func (h *DefenseRequestHandler) BulkStatus(c *gin.Context) {
	var req dto.BulkTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bulk.ApplyTransition(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkApprove godoc
// @Summary Approve many requests
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param payload body dto.BulkIDsRequest true "Bulk ids payload"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/bulk-approve [post]
func (h *DefenseRequestHandler) BulkApprove(c *gin.Context) {
	h.runBulk(c, h.bulk.Approve)
}

// BulkReject godoc
// @Summary Reject many requests
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param payload body dto.BulkIDsRequest true "Bulk ids payload"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/bulk-reject [post]
func (h *DefenseRequestHandler) BulkReject(c *gin.Context) {
	h.runBulk(c, h.bulk.Reject)
}

// BulkRetrieve godoc
// @Summary Return many requests to the submitted state
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param payload body dto.BulkIDsRequest true "Bulk ids payload"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/bulk-retrieve [post]
func (h *DefenseRequestHandler) BulkRetrieve(c *gin.Context) {
	h.runBulk(c, h.bulk.Retrieve)
}

// BulkRemove godoc
// @Summary Remove many requests
// @Tags DefenseRequests
// @Accept json
// @Produce json
// @Param payload body dto.BulkIDsRequest true "Bulk ids payload"
// @Success 200 {object} response.Envelope
// @Router /defense-requests/bulk-remove [post]
func (h *DefenseRequestHandler) BulkRemove(c *gin.Context) {
	h.runBulk(c, h.bulk.Remove)
}

func (h *DefenseRequestHandler) runBulk(c *gin.Context, op func(ctx context.Context, actor service.Actor, req dto.BulkIDsRequest) (*dto.BulkResult, error)) {
	var req dto.BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := op(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
