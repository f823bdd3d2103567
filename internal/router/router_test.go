package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/config"
	"github.com/ikkim/campus-backend/internal/metrics"
	"github.com/ikkim/campus-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
)

type staticChecker map[string]bool

func (s staticChecker) IsBlocked(_ context.Context, ip string) bool {
	return s[ip]
}

func newTestEngine(checker middleware.IPChecker) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"https://campus.example"}},
	}
	r := NewRouter(Controllers{}, middleware.NewAuthMiddleware("secret", nil), checker, metrics.NewRegistry(), cfg)
	return r.Setup()
}

func TestSetup_HealthAndMetrics(t *testing.T) {
	engine := newTestEngine(nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestSetup_ProtectedGroupsRequireToken(t *testing.T) {
	engine := newTestEngine(nil)

	for _, path := range []string{"/api/v1/buy/cart", "/api/v1/management/blocklist", "/api/v1/reports/sales", "/ws/support/1"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSetup_CORSPreflight(t *testing.T) {
	engine := newTestEngine(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "https://campus.example")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://campus.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetup_BlockedIP(t *testing.T) {
	engine := newTestEngine(staticChecker{"192.0.2.1": true})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
