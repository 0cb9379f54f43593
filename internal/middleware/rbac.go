package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
	"github.com/noah-isme/gds-portal-api/pkg/response"
)

// RequireRoles gates a route group to the given roles. It must run after
// JWT, which stores the claims. Fine-grained checks (which role may drive
// which workflow edge) belong to the authorizer, not here.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the authenticated user's claims, if any.
func CurrentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*models.JWTClaims)
	return claims, ok
}
