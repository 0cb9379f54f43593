package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/service"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
	"github.com/noah-isme/gds-portal-api/pkg/response"
)

// HonorariumHandler exposes honorarium tracking endpoints.
type HonorariumHandler struct {
	honoraria *service.HonorariumService
}

// NewHonorariumHandler constructs HonorariumHandler.
func NewHonorariumHandler(honoraria *service.HonorariumService) *HonorariumHandler {
	return &HonorariumHandler{honoraria: honoraria}
}

// List godoc
// @Summary List honorarium records
// @Tags Honoraria
// @Produce json
// @Param defense_request_id query string false "Filter by request"
// @Param payee_id query string false "Filter by payee"
// @Param status query string false "Filter by payment status"
// @Success 200 {object} response.Envelope
// @Router /honoraria [get]
func (h *HonorariumHandler) List(c *gin.Context) {
	var query dto.HonorariumQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	records, pagination, err := h.honoraria.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// UpdateStatus godoc
// @Summary Update a record's payment status
// @Tags Honoraria
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.UpdatePaymentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /honoraria/{id}/status [patch]
func (h *HonorariumHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.honoraria.UpdateStatus(c.Request.Context(), c.Param("id"), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Export godoc
// @Summary Export honorarium records
// @Tags Honoraria
// @Produce text/csv
// @Param format query string false "csv or pdf"
// @Success 200 {file} byte
// @Router /honoraria/export [get]
func (h *HonorariumHandler) Export(c *gin.Context) {
	var query dto.HonorariumQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.honoraria.Export(c.Request.Context(), query, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "honoraria-" + time.Now().UTC().Format("20060102") + "." + format
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
