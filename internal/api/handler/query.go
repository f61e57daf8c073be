package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/answerhunter/internal/api/response"
	"github.com/kiranshivaraju/answerhunter/internal/jobs"
	"github.com/kiranshivaraju/answerhunter/internal/store"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// maxQueryBodyBytes caps the POST /query request body.
const maxQueryBodyBytes = 64 << 10

// QueryService is what the query handlers need from the job manager.
type QueryService interface {
	Submit(ctx context.Context, query string, numResults int) (*models.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

type submitQueryRequest struct {
	Query      string `json:"query"`
	NumResults *int   `json:"num_results"`
}

// NewSubmitQueryHandler returns an http.HandlerFunc for POST /query.
func NewSubmitQueryHandler(svc QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitQueryRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		numResults := 0
		if req.NumResults != nil {
			numResults = *req.NumResults
		}

		job, err := svc.Submit(r.Context(), req.Query, numResults)
		if err != nil {
			switch {
			case errors.Is(err, jobs.ErrInvalidQuery):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "query is required", nil)
			case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrPoolClosed), errors.Is(err, store.ErrStoreFull):
				response.Error(w, http.StatusServiceUnavailable, "SERVER_BUSY",
					"Too many queries in progress, retry later", nil)
			default:
				slog.Error("submitting query failed", "error", err)
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Created(w, job)
	}
}

// NewGetQueryHandler returns an http.HandlerFunc for GET /query/{queryID}.
func NewGetQueryHandler(svc QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "queryID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "queryID must be a valid UUID", nil)
			return
		}

		job, err := svc.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, jobs.ErrEvicted) {
				slog.Debug("query evicted", "job_id", id, "error", err)
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"Query result is no longer retained, please resubmit", nil)
				return
			}
			if errors.Is(err, store.ErrNotFound) {
				slog.Debug("query not found", "job_id", id)
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Query not found", nil)
				return
			}
			slog.Error("loading query failed", "job_id", id, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, job)
	}
}
