package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/crepaldi/agenda-bridge/internal/http/handlers"
	httpmiddleware "github.com/crepaldi/agenda-bridge/internal/http/middleware"
	"github.com/crepaldi/agenda-bridge/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	ScheduleWebhook *handlers.ScheduleWebhookHandler
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", cfg.ScheduleWebhook.HealthCheck)
	r.Get("/health", cfg.ScheduleWebhook.HealthCheck)

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/agendar-json", cfg.ScheduleWebhook.HandleJSON)
		r.Get("/agendar", cfg.ScheduleWebhook.HandleQuery)
		r.Post("/agendar", cfg.ScheduleWebhook.HandleQuery)
		r.Post("/bitrix", cfg.ScheduleWebhook.HandleRaw)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
