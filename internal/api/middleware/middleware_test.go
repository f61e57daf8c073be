package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/answerhunter/internal/api/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

// ========================================
// Logger
// ========================================

func TestLogger_RecordsStatusAndRequestID(t *testing.T) {
	logs := captureLogs(t)

	h := chimw.RequestID(mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest("GET", "/query/abc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/query/abc", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestLogger_DefaultStatusIs200(t *testing.T) {
	logs := captureLogs(t)

	h := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("implicit 200"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	assert.Contains(t, logs.String(), `"status":200`)
}

func TestLogger_ServerErrorsLogAtWarn(t *testing.T) {
	logs := captureLogs(t)

	h := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/query", nil))

	assert.Contains(t, logs.String(), `"level":"WARN"`)
}

// ========================================
// Recovery
// ========================================

func TestRecovery_PanicReturns500Envelope(t *testing.T) {
	captureLogs(t)

	h := mw.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/status", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["error"].(map[string]any)["code"])
}

func TestRecovery_PassesThrough(t *testing.T) {
	h := mw.Recovery(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

// ========================================
// ProcessTime
// ========================================

func TestProcessTime_SetsHeader(t *testing.T) {
	h := mw.ProcessTime(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	raw := w.Header().Get(mw.ProcessTimeHeader)
	require.NotEmpty(t, raw)
	secs, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, secs, 0.0)
}

func TestProcessTime_HandlerWithoutWrite(t *testing.T) {
	h := mw.ProcessTime(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.NotEmpty(t, w.Header().Get(mw.ProcessTimeHeader))
}

// ========================================
// CORS
// ========================================

func TestCORS_SimpleRequest(t *testing.T) {
	h := mw.CORS(okHandler())

	req := httptest.NewRequest("GET", "/status", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "ok", w.Body.String())
}

func TestCORS_NoOriginUsesWildcard(t *testing.T) {
	h := mw.CORS(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/status", nil))

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := mw.CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest("OPTIONS", "/query", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}
