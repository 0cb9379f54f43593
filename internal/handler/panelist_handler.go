package handler

import (
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

// PanelistHandler exposes the panelist roster endpoints.
type PanelistHandler struct {
	panelists *service.PanelistService
}

// NewPanelistHandler constructs PanelistHandler.
func NewPanelistHandler(panelists *service.PanelistService) *PanelistHandler {
	return &PanelistHandler{panelists: panelists}
}

// List godoc
// @Summary List panelists
// @Tags Panelists
// @Produce json
// @Param department query string false "Filter by department"
// @Param active query bool false "Filter by active state"
// @Param can_chair query bool false "Filter by chair eligibility"
// @Param search query string false "Search by name or email"
// @Success 200 {object} response.Envelope
// @Router /panelists [get]
func (h *PanelistHandler) List(c *gin.Context) {
	var filter models.PanelistFilter
	filter.Department = c.Query("department")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}
	if chair := c.Query("can_chair"); chair != "" {
		v := chair == "true"
		filter.CanChair = &v
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	panelists, pagination, err := h.panelists.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, panelists, pagination)
}

// Get godoc
// @Summary Get panelist detail
// @Tags Panelists
// @Produce json
// @Param id path string true "Panelist ID"
// @Success 200 {object} response.Envelope
// @Router /panelists/{id} [get]
func (h *PanelistHandler) Get(c *gin.Context) {
	panelist, err := h.panelists.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, panelist, nil)
}

// Create godoc
// @Summary Register a panelist
// @Tags Panelists
// @Accept json
// @Produce json
// @Param payload body dto.CreatePanelistRequest true "Panelist payload"
// @Success 201 {object} response.Envelope
// @Router /panelists [post]
func (h *PanelistHandler) Create(c *gin.Context) {
	var req dto.CreatePanelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	panelist, err := h.panelists.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, panelist)
}

// Update godoc
// @Summary Update a panelist
// @Tags Panelists
// @Accept json
// @Produce json
// @Param id path string true "Panelist ID"
// @Param payload body dto.UpdatePanelistRequest true "Panelist payload"
// @Success 200 {object} response.Envelope
// @Router /panelists/{id} [put]
func (h *PanelistHandler) Update(c *gin.Context) {
	var req dto.UpdatePanelistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	panelist, err := h.panelists.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, panelist, nil)
}

// Delete godoc
// @Summary Deactivate a panelist
// @Tags Panelists
// @Produce json
// @Param id path string true "Panelist ID"
// @Success 204 {object} response.Envelope
// @Router /panelists/{id} [delete]
func (h *PanelistHandler) Delete(c *gin.Context) {
	if err := h.panelists.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
