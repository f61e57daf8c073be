package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testID = uuid.MustParse("dddddddd-dddd-dddd-dddd-dddddddddddd")

// fakeServer answers like answerhunter: a submitted job completes on the second poll.
func fakeServer(t *testing.T, final models.Job) *httptest.Server {
	t.Helper()
	var polls atomic.Int32

	write := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"data": v})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query      string `json:"query"`
			NumResults int    `json:"num_results"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		write(w, http.StatusCreated, models.Job{ID: testID, Status: models.JobStatusInitiated, Query: body.Query, NumResults: body.NumResults})
	})
	mux.HandleFunc("GET /query/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testID.String() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"Query not found"}}`))
			return
		}
		if polls.Add(1) < 2 {
			write(w, http.StatusOK, models.Job{ID: testID, Status: models.JobStatusSearching})
			return
		}
		write(w, http.StatusOK, final)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		write(w, http.StatusOK, models.StatusSummary{
			ActiveWorkerCount: 2,
			QueuedJobCount:    1,
			TotalJobCount:     9,
			CountsByStatus:    map[models.JobStatus]int{models.JobStatusCompleted: 6, models.JobStatusFailed: 1},
		})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		write(w, http.StatusOK, models.HealthReport{
			Status:                "healthy",
			Timestamp:             time.Now().UTC(),
			CredentialsConfigured: true,
			Services:              map[string]string{"cache": "disabled"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func completedJob() models.Job {
	answer := "Paris is the capital of France [Source 1]."
	elapsed := 2.5
	return models.Job{
		ID:     testID,
		Status: models.JobStatusCompleted,
		Query:  "capital of France",
		Answer: &answer,
		Sources: []models.Source{
			{URL: "https://en.wikipedia.org/wiki/Paris", Title: "Paris - Wikipedia"},
			{URL: "https://www.britannica.com/place/Paris", Title: "Paris | Britannica"},
		},
		ProcessingTime: &elapsed,
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCommand(&out).Run(context.Background(), append([]string{"answerctl"}, args...))
	return out.String(), err
}

func TestAsk_PrintsAnswerAndSources(t *testing.T) {
	srv := fakeServer(t, completedJob())

	out, err := run(t, "--server", srv.URL, "ask", "--poll-interval", "5ms", "capital", "of", "France")
	require.NoError(t, err)

	assert.Contains(t, out, "Paris is the capital of France [Source 1].")
	assert.Contains(t, out, "[1] Paris - Wikipedia")
	assert.Contains(t, out, "https://www.britannica.com/place/Paris")
	assert.Contains(t, out, "answered in 2.5s")
}

func TestAsk_NoWaitPrintsID(t *testing.T) {
	srv := fakeServer(t, completedJob())

	out, err := run(t, "--server", srv.URL, "ask", "--no-wait", "capital of France")
	require.NoError(t, err)
	assert.Equal(t, testID.String(), strings.TrimSpace(out))
}

func TestAsk_JSON(t *testing.T) {
	srv := fakeServer(t, completedJob())

	out, err := run(t, "--server", srv.URL, "ask", "--json", "--poll-interval", "5ms", "capital of France")
	require.NoError(t, err)

	var job models.Job
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Len(t, job.Sources, 2)
}

func TestAsk_FailedJobReturnsError(t *testing.T) {
	msg := "synthesizing answer: draft pass: inference timeout"
	srv := fakeServer(t, models.Job{ID: testID, Status: models.JobStatusFailed, Error: &msg})

	_, err := run(t, "--server", srv.URL, "ask", "--poll-interval", "5ms", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference timeout")
}

func TestAsk_MissingQuestion(t *testing.T) {
	_, err := run(t, "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a question")
}

func TestGet(t *testing.T) {
	srv := fakeServer(t, completedJob())

	out, err := run(t, "--server", srv.URL, "get", testID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "is searching")

	out, err = run(t, "--server", srv.URL, "get", testID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Paris is the capital of France")
}

func TestGet_BadID(t *testing.T) {
	_, err := run(t, "get", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query ID")
}

func TestGet_Unknown(t *testing.T) {
	srv := fakeServer(t, completedJob())

	_, err := run(t, "--server", srv.URL, "get", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestStatus(t *testing.T) {
	srv := fakeServer(t, completedJob())

	out, err := run(t, "--server", srv.URL, "status")
	require.NoError(t, err)
	for _, want := range []string{"active workers", "queued jobs", "total jobs", "completed", "9", "6"} {
		assert.Contains(t, out, want)
	}
}

func TestHealth(t *testing.T) {
	srv := fakeServer(t, completedJob())

	out, err := run(t, "--server", srv.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "status: healthy")
	assert.Contains(t, out, "credentials configured: true")
	assert.Contains(t, out, "cache: disabled")
}
