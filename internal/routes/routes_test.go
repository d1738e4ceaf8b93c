package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"precision-medicine-server/internal/approach"
	"precision-medicine-server/internal/config"
	"precision-medicine-server/internal/metrics"
	"precision-medicine-server/internal/middleware"
	"precision-medicine-server/internal/models"
	"precision-medicine-server/internal/orchestrator"
	"precision-medicine-server/internal/recommend"
	"precision-medicine-server/internal/session"
	"precision-medicine-server/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:                 "access",
		JWTRefreshSecret:          "refresh",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
		MaxUploadMB:               1,
		RateLimit:                 config.RateLimitConfig{RPS: 0.001, Burst: 2},
	}
}

func newRouter(t *testing.T, sessions Pinger) (*gin.Engine, *config.Config) {
	t.Helper()
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	orch := orchestrator.New(orchestrator.Deps{
		Sessions:    session.NewMemoryStore(time.Hour),
		Recommender: recommend.NewClient(nil, m),
		Selector:    approach.NewSelector(nil, 8, m),
		Metrics:     m,
	})

	r := gin.New()
	r.Use(middleware.Metrics(m))
	SetupRoutes(r, Dependencies{Orchestrator: orch, Gatherer: registry, Sessions: sessions}, cfg)
	return r, cfg
}

func bearer(t *testing.T, cfg *config.Config, userID string) string {
	t.Helper()
	user := &models.User{Username: "tester"}
	user.ID = userID
	access, _, err := utils.GenerateTokens(user, cfg)
	require.NoError(t, err)
	return "Bearer " + access
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newRouter(t, nil)

	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestReadinessReportsSessionStore(t *testing.T) {
	r, _ := newRouter(t, pingerFunc(func(context.Context) error { return errors.New("redis down") }))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis down")
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "precision_medicine_http_requests_total")
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	r, _ := newRouter(t, nil)

	for _, path := range []string{"/api/v1/profile", "/api/v1/results", "/api/v1/reports", "/api/v1/export-report", "/api/v1/auth/me"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestModelEndpointsAreRateLimited(t *testing.T) {
	r, cfg := newRouter(t, nil)
	auth := bearer(t, cfg, "user-1")

	call := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/select-approach", strings.NewReader(`{"query":"sudden chest pain"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusOK, call())
	assert.Equal(t, http.StatusTooManyRequests, call())

	// Endpoints that never reach a model are not limited
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
		req.Header.Set("Authorization", auth)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
