package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/internal/service"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
	"github.com/noah-isme/gds-portal-api/pkg/response"
)

// ScheduleHandler exposes conflict checking, availability and the
// scheduling transitions.
type ScheduleHandler struct {
	conflicts *service.ConflictService
	workflow  *service.WorkflowService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(conflicts *service.ConflictService, workflow *service.WorkflowService) *ScheduleHandler {
	return &ScheduleHandler{conflicts: conflicts, workflow: workflow}
}

// CheckConflicts godoc
// @Summary Check a proposed window for conflicts
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Proposed window"
// @Success 200 {object} response.Envelope
// @Router /coordinator/schedule/check-conflicts [post]
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.conflicts.CheckWindow(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"has_conflicts": report.HasConflicts(),
		"conflicts":     report.Conflicts,
		"request_ids":   report.ConflictingRequestIDs(),
	}, nil)
}

// AvailablePanelists godoc
// @Summary List panelists free during a window
// @Tags Scheduling
// @Produce json
// @Param date query string true "Date (2006-01-02)"
// @Param start_time query string true "Start (15:04)"
// @Param end_time query string true "End (15:04)"
// @Param chair_only query bool false "Only chair-eligible panelists"
// @Success 200 {object} response.Envelope
// @Router /coordinator/schedule/available-panelists [get]
func (h *ScheduleHandler) AvailablePanelists(c *gin.Context) {
	var query dto.AvailablePanelistsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	panelists, err := h.conflicts.AvailablePanelists(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AvailablePanelistsResponse{Panelists: panelists}, nil)
}

// Calendar godoc
// @Summary List scheduled defenses in a date range
// @Tags Scheduling
// @Produce json
// @Param from query string true "Range start (2006-01-02)"
// @Param to query string true "Range end (2006-01-02, exclusive)"
// @Success 200 {object} response.Envelope
// @Router /coordinator/schedule/calendar [get]
func (h *ScheduleHandler) Calendar(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid from date"))
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid to date"))
		return
	}
	events, err := h.conflicts.Calendar(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// AssignPanels godoc
// @Summary Assign the examining panel
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.PanelRosterPayload true "Panel roster"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /defense/{id}/assign-panels [post]
func (h *ScheduleHandler) AssignPanels(c *gin.Context) {
	var roster dto.PanelRosterPayload
	if err := c.ShouldBindJSON(&roster); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.workflow.RequestTransition(c.Request.Context(), c.Param("id"), actorFromContext(c), dto.TransitionRequest{
		TargetState:   models.StatePanelsAssigned,
		ExpectedState: models.StateCoordinatorApproved,
		Panels:        &roster,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDefenseRequestItem(*updated), nil)
}

// Schedule godoc
// @Summary Schedule a defense
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.SchedulePayload true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /defense/{id}/schedule [post]
func (h *ScheduleHandler) Schedule(c *gin.Context) {
	h.applySchedule(c, models.StatePanelsAssigned)
}

// Reschedule godoc
// @Summary Move a scheduled defense to a new window
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.SchedulePayload true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /defense/{id}/reschedule [post]
func (h *ScheduleHandler) Reschedule(c *gin.Context) {
	h.applySchedule(c, models.StateScheduled)
}

func (h *ScheduleHandler) applySchedule(c *gin.Context, expected models.WorkflowState) {
	var payload dto.SchedulePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.workflow.RequestTransition(c.Request.Context(), c.Param("id"), actorFromContext(c), dto.TransitionRequest{
		TargetState:   models.StateScheduled,
		ExpectedState: expected,
		Schedule:      &payload,
	})
	if err != nil {
		respondWorkflowError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewDefenseRequestItem(*updated), nil)
}
