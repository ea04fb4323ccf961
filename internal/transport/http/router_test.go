package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cedent/internal/platform/middleware"
	"cedent/pkg/platform/httputil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticValidator struct {
	claims *middleware.Claims
}

func (v staticValidator) ValidateToken(token string) (*middleware.Claims, error) {
	if token != "good-token" {
		return nil, errors.New("bad token")
	}
	return v.claims, nil
}

type pingHandler struct{}

func (pingHandler) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"pong": "true"})
	})
}

func newTestRouter(t *testing.T, checks map[string]func(context.Context) error) http.Handler {
	t.Helper()
	return NewRouter(Config{
		Logger:         testLogger(),
		TokenValidator: staticValidator{claims: &middleware.Claims{UserID: "9a1f1f2e-8f7f-4c8e-9a51-0a9fb4f2d001", Role: "UNDERWRITER"}},
		HealthChecks:   checks,
		Handlers:       []Registrar{pingHandler{}},
	})
}

func TestHealthzIsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzReportsDegradedDependencies(t *testing.T) {
	router := newTestRouter(t, map[string]func(context.Context) error{
		"postgres": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pong")
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
