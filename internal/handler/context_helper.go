package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gds-portal-api/internal/middleware"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	if claims := claimsFromContext(c); claims != nil {
		actor.ID = claims.UserID
		actor.Role = claims.Role
	}
	return actor
}
