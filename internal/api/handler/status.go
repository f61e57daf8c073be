package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/answerhunter/internal/api/response"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// StatusReporter supplies the counters served on GET /status.
type StatusReporter interface {
	Summary(ctx context.Context) (models.StatusSummary, error)
}

// NewStatusHandler returns an http.HandlerFunc for GET /status.
func NewStatusHandler(svc StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context())
		if err != nil {
			slog.Error("building status summary failed", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}
		response.JSON(w, summary)
	}
}
