package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

// Envelope is the wire shape every endpoint responds with.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

func write(c *gin.Context, status int, env Envelope) {
	// Workflow state is volatile; intermediaries must not cache it.
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, env)
}

// JSON sends a success envelope, with pagination when listing.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	write(c, status, Envelope{Data: data, Pagination: pagination})
}

// Created responds 201 with the created resource.
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Envelope{Data: data})
}

// Error maps err onto the envelope's error shape and status code.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	write(c, appErr.Status, Envelope{Error: appErr})
}

// NoContent sends an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
