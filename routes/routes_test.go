package routes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/belote-manager/metrics"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }

func newTestRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := chi.NewRouter()
	SetupRoutes(r, Handlers{}, opts)
	return r
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantBody   string
	}{
		{"no database configured", nil, http.StatusOK, `{"status":"ok"}`},
		{"database reachable", fakePinger{}, http.StatusOK, `{"status":"ok"}`},
		{"database down", fakePinger{err: errors.New("connection refused")}, http.StatusServiceUnavailable, `{"status":"unavailable"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(Options{DB: tt.db, AllowedOrigins: []string{"*"}})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("Content-Type"))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := metrics.NewPrometheus(reg)
	recorder.RoundGenerated("preliminary", 6)

	router := newTestRouter(Options{MetricsHandler: metrics.Handler(reg), AllowedOrigins: []string{"*"}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `belote_rounds_generated_total{phase="preliminary"} 1`)
	assert.Contains(t, rec.Body.String(), `belote_matches_created_total{phase="preliminary"} 6`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	router := newTestRouter(Options{AllowedOrigins: []string{"*"}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
