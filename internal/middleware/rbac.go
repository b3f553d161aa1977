package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/response"
)

// RequireRoles lets the request through only when the caller has one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "access denied: "+roleList(roles)+" role required"))
			return
		}
		c.Next()
	}
}

func roleList(roles []models.UserRole) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}
