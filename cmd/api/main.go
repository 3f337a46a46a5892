package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crepaldi/agenda-bridge/internal/api/router"
	"github.com/crepaldi/agenda-bridge/internal/belle"
	"github.com/crepaldi/agenda-bridge/internal/bitrix"
	appconfig "github.com/crepaldi/agenda-bridge/internal/config"
	"github.com/crepaldi/agenda-bridge/internal/http/handlers"
	"github.com/crepaldi/agenda-bridge/internal/mapping"
	"github.com/crepaldi/agenda-bridge/internal/observability/metrics"
	"github.com/crepaldi/agenda-bridge/internal/scheduling"
	"github.com/crepaldi/agenda-bridge/pkg/logging"
)

func main() {
	// Load .env in development; in production the environment is injected.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting agenda-bridge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	tables, err := mapping.Load(cfg.MappingFile, logger)
	if err != nil {
		logger.Error("failed to load mapping tables", "error", err)
		os.Exit(1)
	}

	crm := bitrix.NewClient(cfg.BitrixWebhookURL, logger,
		bitrix.WithTimeout(cfg.GatewayTimeout),
	)
	agenda := belle.NewClient(cfg.BelleBaseURL, logger,
		belle.WithTimeout(cfg.GatewayTimeout),
		belle.WithPayloadVersion(cfg.BellePayloadVersion),
	)

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	service := scheduling.NewService(crm, agenda, tables, logger,
		scheduling.WithMetrics(bookingMetrics),
		scheduling.WithDefaultDuration(cfg.DefaultDurationMins),
		scheduling.WithDefaultSlot(cfg.DefaultSlotMins),
	)

	webhookHandler := handlers.NewScheduleWebhookHandler(service, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		ScheduleWebhook: webhookHandler,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
