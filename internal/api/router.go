// Package api wires the HTTP router for the climatlas service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/climatlas/climatlas/internal/api/handler"
	"github.com/climatlas/climatlas/internal/api/middleware"
)

// RouterConfig holds the dependencies for the router.
type RouterConfig struct {
	Runs      *handler.RunHandler
	Ops       *handler.OpsHandler
	Validator middleware.TokenValidator
	Metrics   *middleware.Metrics
	Logger    zerolog.Logger
}

// NewRouter builds the service's HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(cfg.Metrics.Middleware())
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", cfg.Ops.Health)
			r.Get("/ready", cfg.Ops.Ready)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Validator))

			r.With(middleware.RateLimitByIP(middleware.TriggerRateLimit)).
				Post("/", cfg.Runs.Create)

			r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).
				Get("/", cfg.Runs.List)
			r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).
				Get("/{runId}", cfg.Runs.Get)
		})
	})

	return r
}
