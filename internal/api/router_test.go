package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/internal/api"
	mw "github.com/kiranshivaraju/answerhunter/internal/api/middleware"
	"github.com/kiranshivaraju/answerhunter/internal/store"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub service ---

type stubService struct{}

func (stubService) Submit(_ context.Context, query string, numResults int) (*models.Job, error) {
	return &models.Job{ID: uuid.New(), Status: models.JobStatusInitiated, Query: query, NumResults: numResults}, nil
}

func (stubService) Get(_ context.Context, _ uuid.UUID) (*models.Job, error) {
	return nil, store.ErrNotFound
}

func (stubService) Summary(_ context.Context) (models.StatusSummary, error) {
	return models.StatusSummary{CountsByStatus: map[models.JobStatus]int{}}, nil
}

var _ api.Service = stubService{}

func newTestRouter() http.Handler {
	return api.NewRouter(api.Dependencies{Service: stubService{}})
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body["error"].(map[string]any)["code"].(string)
}

// --- router tests ---

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"GET", "/status", "", http.StatusOK},
		{"POST", "/query", `{"query":"q"}`, http.StatusCreated},
		{"GET", "/query/" + uuid.NewString(), "", http.StatusNotFound},
		{"GET", "/query/nope", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(mw.ProcessTimeHeader))
			assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errCode(t, w))
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("DELETE", "/query/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", errCode(t, w))
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("OPTIONS", "/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_HealthWithoutCache(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	var body struct {
		Data models.HealthReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Data.Status)
	assert.False(t, body.Data.CredentialsConfigured)
	assert.Equal(t, "disabled", body.Data.Services["cache"])
}
