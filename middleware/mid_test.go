package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/pkg/ctxmanage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newKeys(t *testing.T) *auth.Keys {
	t.Helper()
	k, err := auth.NewKeys("0123456789abcdef0123", "storefront", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return k
}

func newRouter(t *testing.T, keys *auth.Keys, revoker auth.Revoker) *gin.Engine {
	t.Helper()
	m, err := NewMid(keys, revoker)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Logger())
	r.GET("/trace", func(c *gin.Context) {
		c.String(http.StatusOK, ctxmanage.GetTraceIdOfRequest(c))
	})
	g := r.Group("/api")
	g.Use(m.Authentication())
	g.GET("/me", m.Authorize(func(c *gin.Context) {
		claims := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		c.String(http.StatusOK, claims.Username)
	}, auth.RoleUser))
	g.GET("/admin", m.Authorize(func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	}, auth.RoleAdmin))
	return r
}

func TestLoggerSetsTraceId(t *testing.T) {
	r := newRouter(t, newKeys(t), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trace", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(TraceHeader))

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(TraceHeader, "5f0c6c1e-6b8e-4e57-9d64-2a4f4c5b9c11")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "5f0c6c1e-6b8e-4e57-9d64-2a4f4c5b9c11", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(TraceHeader, "not a uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Body.String())
}

func TestAuthentication(t *testing.T) {
	keys := newKeys(t)
	revoker := auth.NewMemoryRevoker()
	r := newRouter(t, keys, revoker)

	user, err := keys.IssuePair(1, "alice", []string{auth.RoleUser})
	require.NoError(t, err)
	admin, err := keys.IssuePair(2, "root", []string{auth.RoleUser, auth.RoleAdmin})
	require.NoError(t, err)
	revoked, err := keys.IssuePair(3, "gone", []string{auth.RoleUser})
	require.NoError(t, err)
	revokedClaims, err := keys.ValidateToken(revoked.Access, auth.TokenAccess)
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(context.Background(), revokedClaims.ID, time.Hour))

	tests := []struct {
		name   string
		path   string
		setup  func(*http.Request)
		status int
		body   string
	}{
		{name: "no token", path: "/api/me", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{
			name:   "bearer token",
			path:   "/api/me",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+user.Access) },
			status: http.StatusOK,
			body:   "alice",
		},
		{
			name:   "cookie token",
			path:   "/api/me",
			setup:  func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: user.Access}) },
			status: http.StatusOK,
			body:   "alice",
		},
		{
			name:   "refresh token is not an access token",
			path:   "/api/me",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+user.Refresh) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "garbage",
			path:   "/api/me",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc.def.ghi") },
			status: http.StatusUnauthorized,
		},
		{
			name:   "revoked token",
			path:   "/api/me",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+revoked.Access) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "user on admin route",
			path:   "/api/admin",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+user.Access) },
			status: http.StatusForbidden,
		},
		{
			name:   "admin on admin route",
			path:   "/api/admin",
			setup:  func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+admin.Access) },
			status: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
			if tt.status >= 400 {
				var env map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
				assert.Equal(t, false, env["success"])
				assert.NotEmpty(t, env["message"])
			}
		})
	}
}

func TestNewMidRequiresKeys(t *testing.T) {
	_, err := NewMid(nil, nil)
	assert.Error(t, err)
}
