package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/belote-manager/services"
)

// serve routes a single request through chi so URL params resolve.
func serve(method, pattern, target string, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", services.ErrTournamentNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("loading: %w", services.ErrTeamNotFound), http.StatusNotFound},
		{"insufficient teams", services.ErrInsufficientTeams, http.StatusUnprocessableEntity},
		{"config violation", services.ErrConfigViolation, http.StatusBadRequest},
		{"stage action", services.ErrStageActionNotAllowed, http.StatusBadRequest},
		{"duplicate registration", services.ErrRegistrationConflict, http.StatusConflict},
		{"mandatory config", services.ErrMandatoryConfig, http.StatusConflict},
		{"storage", fmt.Errorf("%w: tx: %w", services.ErrStorage, errors.New("broken pipe")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "broken pipe")
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"x","count":2}`, ""},
		{"empty", ``, "body must not be empty"},
		{"malformed", `{"name":`, "badly-formed JSON"},
		{"wrong type", `{"count":"two"}`, `incorrect JSON type for field "count"`},
		{"unknown field", `{"nom":"x"}`, `unknown key "nom"`},
		{"two values", `{"name":"a"}{"name":"b"}`, "single JSON value"},
		{"too large", `{"name":"` + strings.Repeat("a", 1_048_577) + `"}`, "must not be larger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := readJSON(rec, req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, payload{Name: "x", Count: 2}, dst)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetIDFromURL(t *testing.T) {
	tests := []struct {
		param   string
		want    int
		wantErr bool
	}{
		{"12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("tournamentID", tt.param)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := getIDFromURL(req, "tournamentID")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateInput(t *testing.T) {
	var d dateInput
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01"`), &d))
	assert.Equal(t, 2024, d.Year())

	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T18:30:00Z"`), &d))
	assert.Equal(t, 18, d.Hour())

	assert.Error(t, json.Unmarshal([]byte(`"01/06/2024"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20240601`), &d))
}
