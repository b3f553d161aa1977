package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type validatorStub map[string]*models.JWTClaims

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	claims, ok := v[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token is not valid")
	}
	return claims, nil
}

func tokens() validatorStub {
	return validatorStub{
		"parent-token": {UserID: "parent-1", Role: models.RoleParent},
		"coach-token":  {UserID: "coach-user-1", Role: models.RoleCoach},
	}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).UserID)
	})
	r.GET("/protected", handlers...)
	return r
}

func perform(r http.Handler, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT(t *testing.T) {
	r := newRouter(JWT(tokens()))

	w := perform(r, "/protected", "Bearer parent-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "parent-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, perform(r, "/protected", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/protected", "Token parent-token").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/protected", "Bearer forged").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "/protected?access_token=parent-token", "").Code)
}

func TestJWTWithQuery(t *testing.T) {
	r := newRouter(JWTWithQuery(tokens()))

	w := perform(r, "/protected?access_token=coach-token", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coach-user-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, perform(r, "/protected?access_token=forged", "").Code)
}

func TestRequireRoles(t *testing.T) {
	r := newRouter(JWT(tokens()), RequireRoles(models.RoleCoach))

	assert.Equal(t, http.StatusOK, perform(r, "/protected", "Bearer coach-token").Code)
	w := perform(r, "/protected", "Bearer parent-token")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "coach role required")

	bare := newRouter(RequireRoles(models.RoleCoach))
	assert.Equal(t, http.StatusUnauthorized, perform(bare, "/protected", "").Code)
}

type observerStub struct {
	paths    []string
	statuses []int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, path)
	o.statuses = append(o.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	perform(r, "/items/42", "")
	perform(r, "/nowhere", "")

	assert.Equal(t, []string{"/items/:id", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNotFound}, observer.statuses)
}

func TestCurrentUserOutsideAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
	c.Set(ContextUserKey, errors.New("not claims"))
	assert.Nil(t, CurrentUser(c))
}
