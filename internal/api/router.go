// Package api exposes the query service over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kiranshivaraju/answerhunter/internal/api/handler"
	mw "github.com/kiranshivaraju/answerhunter/internal/api/middleware"
	"github.com/kiranshivaraju/answerhunter/internal/api/response"
)

// Service is the job manager as seen by the HTTP layer.
type Service interface {
	handler.QueryService
	handler.StatusReporter
}

// Dependencies holds everything the router's handlers need.
type Dependencies struct {
	Service Service
	// Cache is pinged by GET /health. Nil means no cache is configured.
	Cache                 handler.Pinger
	CredentialsConfigured bool
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.ProcessTime)
	r.Use(mw.CORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/health", handler.NewHealthHandler(deps.Cache, deps.CredentialsConfigured))
	r.Get("/status", handler.NewStatusHandler(deps.Service))
	r.Post("/query", handler.NewSubmitQueryHandler(deps.Service))
	r.Get("/query/{queryID}", handler.NewGetQueryHandler(deps.Service))

	return r
}
