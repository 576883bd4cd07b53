package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bakery-shop-backend/internal/model"
	"bakery-shop-backend/internal/service"
)

type fakeVerifier map[string]service.Identity

func (f fakeVerifier) Verify(_ context.Context, token string) (service.Identity, error) {
	if token == "broken" {
		return service.Identity{}, errors.New("auth backend down")
	}
	id, ok := f[token]
	if !ok {
		return service.Identity{}, service.ErrUnauthorized
	}
	return id, nil
}

func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zaptest.NewLogger(t)), Recovery())

	verifier := fakeVerifier{
		"user-token":  {UserID: "u1", Role: model.RoleUser},
		"admin-token": {UserID: "a1", Role: model.RoleAdmin},
	}
	api := r.Group("/api", AuthMiddleware(verifier))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": Identity(c).UserID})
	})
	api.GET("/admin", AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/panic", func(c *gin.Context) { panic("oven on fire") })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Message
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/api/me", "user-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1"}`, w.Body.String())

	for name, token := range map[string]string{"missing": "", "unknown": "forged"} {
		t.Run(name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/api/me", token)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Not authorized to access this route", message(t, w))
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/me", "broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server Error", message(t, w))
}

func TestAdminOnly(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/api/admin", "user-token")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "User role user is not authorized to access this route", message(t, w))

	w = do(r, http.MethodGet, "/api/admin", "admin-token")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/api/me", "user-token")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("X-Request-ID", "trace-42")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-42", w.Header().Get("X-Request-ID"))

	assert.False(t, validRequestID("bad\nid"))
	assert.False(t, validRequestID(string(make([]byte, 129))))
}

func TestRecovery(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/panic", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server Error", message(t, w))
}
