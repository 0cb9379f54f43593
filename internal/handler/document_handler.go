package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gds-portal-api/internal/service"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
	"github.com/noah-isme/gds-portal-api/pkg/response"
)

// DocumentHandler exposes document generation and signed downloads.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// ScheduleNotice godoc
// @Summary Generate the defense schedule notice
// @Tags Documents
// @Produce json
// @Param id path string true "Request ID"
// @Success 201 {object} response.Envelope
// @Router /documents/defense/{id}/schedule-notice [post]
func (h *DocumentHandler) ScheduleNotice(c *gin.Context) {
	link, err := h.documents.ScheduleNotice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Download godoc
// @Summary Download a generated document
// @Tags Documents
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} byte
// @Router /documents/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a download token is required"))
		return
	}
	file, relPath, err := h.documents.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	modTime := time.Now()
	if info, statErr := file.Stat(); statErr == nil {
		modTime = info.ModTime()
	}
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(relPath)+`"`)
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, filepath.Base(relPath), modTime, file)
}
