package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irislabs/iris-api/internal/config"
	"github.com/irislabs/iris-api/internal/gateway"
	"github.com/irislabs/iris-api/internal/mocks"
	"github.com/irislabs/iris-api/internal/service/auth"
)

// stubProber is a gateway.Prober with a canned answer.
type stubProber struct {
	reachable  bool
	modelReady bool
	err        error
}

func (p *stubProber) Probe(ctx context.Context) (bool, bool, error) {
	return p.reachable, p.modelReady, p.err
}

// newTestApplication builds an application wired with mocks, enough for the
// router to serve every registered route without a database or a model
// server behind it.
func newTestApplication(t *testing.T, jwtService auth.JWTService) *application {
	t.Helper()

	gw := gateway.New(
		gateway.Config{MaxConcurrent: 3, MaxQueueSize: 10},
		&stubProber{err: errors.New("backend offline")},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	t.Cleanup(gw.Close)

	return &application{
		config: &config.Config{
			Server: config.ServerConfig{Port: 8080, LogLevel: "info"},
			Auth: config.AuthConfig{
				JWTSecret:                   strings.Repeat("x", 32),
				TokenLifetimeMinutes:        60,
				RefreshTokenLifetimeMinutes: 10080,
			},
		},
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		userStore:        mocks.NewMockUserStore(),
		jwtService:       jwtService,
		passwordVerifier: &mocks.MockPasswordVerifier{ShouldSucceed: true},
		analysisService:  &mocks.MockAnalysisService{},
		gateway:          gw,
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, &mocks.MockJWTService{})
	router := app.setupRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRouterMetricsEndpoint(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, &mocks.MockJWTService{})
	router := app.setupRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "iris_gateway_in_flight")
}

func TestRouterStatusEndpoint(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, &mocks.MockJWTService{})
	router := app.setupRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var status gateway.ServiceStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.False(t, status.Reachable)
	assert.Equal(t, 0, status.CurrentInFlight)
	assert.Equal(t, 0, status.QueuedCount)
	assert.Equal(t, float64(0), status.UtilizationPercent)
	assert.Equal(t, "backend offline", status.Error)
}

func TestRouterAnalysesRequireAuth(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, &mocks.MockJWTService{
		ValidateErr: auth.ErrInvalidToken,
	})
	router := app.setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/analyses"},
		{http.MethodGet, "/api/analyses"},
		{http.MethodGet, "/api/analyses/" + uuid.New().String()},
		{http.MethodDelete, "/api/analyses/" + uuid.New().String()},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestRouterAuthenticatedListAnalyses(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	app := newTestApplication(t, &mocks.MockJWTService{
		Claims: &auth.Claims{UserID: userID, TokenType: "access"},
	})
	router := app.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRegisterRejectsInvalidBody(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, &mocks.MockJWTService{})
	router := app.setupRouter()

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/auth/register",
		strings.NewReader("{not json"),
	)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, &mocks.MockJWTService{})
	router := app.setupRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
