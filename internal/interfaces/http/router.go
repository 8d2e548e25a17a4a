// Package http exposes molview sessions over a JSON API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/internal/interfaces/http/handlers"
	"github.com/turtacn/molview/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree.
type RouterConfig struct {
	SessionHandler *handlers.SessionHandler
	HealthHandler  *handlers.HealthHandler

	CORS    *middleware.CORSConfig
	Logging *middleware.LoggingConfig

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	logCfg := middleware.DefaultLoggingConfig()
	if cfg.Logging != nil {
		logCfg = *cfg.Logging
	}
	r.Use(middleware.RequestLogging(cfg.Logger, logCfg))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/examples", handlers.ListExamples)
		if cfg.HealthHandler != nil {
			api.Get("/status", cfg.HealthHandler.Status)
		}
		registerSessionRoutes(api, cfg.SessionHandler)
	})

	return r
}

// registerSessionRoutes mounts the session workspace under /sessions.
func registerSessionRoutes(r chi.Router, h *handlers.SessionHandler) {
	if h == nil {
		return
	}
	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", h.Create)

		sr.Route("/{sessionID}", func(item chi.Router) {
			item.Use(h.SessionCtx)
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Post("/analyze", h.Analyze)
			item.Post("/reset", h.Reset)
			item.Post("/viewer/{action}", h.ViewerAction)
			item.Delete("/notifications/{notificationID}", h.DismissNotification)
		})
	})
}
