package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/answerhunter/internal/api/response"
	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

const healthPingTimeout = 2 * time.Second

// Pinger is any dependency whose reachability is reported on GET /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /health. The service is
// always reported healthy; a nil cache is reported as disabled and an
// unreachable one as unavailable.
func NewHealthHandler(cache Pinger, credentialsConfigured bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := map[string]string{"cache": "disabled"}
		if cache != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				slog.Warn("cache health check failed", "error", err)
				services["cache"] = "unavailable"
			} else {
				services["cache"] = "ok"
			}
		}

		response.JSON(w, models.HealthReport{
			Status:                "healthy",
			Timestamp:             time.Now().UTC(),
			CredentialsConfigured: credentialsConfigured,
			Services:              services,
		})
	}
}
