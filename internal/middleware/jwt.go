package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// accessTokenQuery carries the token for clients that cannot set headers, such as browser websockets.
const accessTokenQuery = "access_token"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return authenticate(auth, false)
}

// JWTWithQuery is JWT that also accepts ?access_token= when no header is sent.
func JWTWithQuery(auth tokenValidator) gin.HandlerFunc {
	return authenticate(auth, true)
}

func authenticate(auth tokenValidator, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
				return
			}
			token = strings.TrimSpace(parts[1])
		} else if allowQuery {
			token = c.Query(accessTokenQuery)
		}
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "no token, authorization denied"))
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentUser returns the claims stored by JWT, or nil outside authenticated routes.
func CurrentUser(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
