package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GTD-TFS/bus/internal/app"
	"github.com/GTD-TFS/bus/internal/appconf"
	"github.com/GTD-TFS/bus/internal/clock"
	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/logging"
	"github.com/GTD-TFS/bus/internal/metrics"
	"github.com/GTD-TFS/bus/internal/planner"
	"github.com/GTD-TFS/bus/internal/restapi"
	"github.com/GTD-TFS/bus/internal/webui"
)

// ParseAPIKeys splits a comma-separated key list, trimming whitespace
// around each entry. An empty input yields an empty, non-nil slice.
func ParseAPIKeys(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		keys = append(keys, strings.TrimSpace(part))
	}
	return keys
}

// BuildApplication assembles the core application: logger, metrics,
// GTFS manager and planner engine.
func BuildApplication(cfg appconf.Config, gtfsCfg gtfs.Config) (*app.Application, error) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewStructuredLogger(os.Stdout, level)

	m := metrics.New()

	manager, err := gtfs.InitManager(gtfsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GTFS manager: %w", err)
	}
	manager.Metrics = m

	coreApp := &app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsCfg,
		Logger:      logger,
		GtfsManager: manager,
		Planner:     planner.New(planner.Config{}, m),
		Clock:       clock.RealClock{},
		Metrics:     m,
	}

	return coreApp, nil
}

// CreateServer builds the HTTP server with the full middleware chain.
// The returned rate limiter must be stopped when the server goes away.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RateLimitMiddleware) {
	mux := http.NewServeMux()

	api := &restapi.RestAPI{Application: coreApp}
	api.SetRoutes(mux)

	ui := &webui.WebUI{Application: coreApp}
	ui.SetWebUIRoutes(mux)

	mux.Handle("GET /metrics", promhttp.HandlerFor(coreApp.Metrics.Registry, promhttp.HandlerOpts{}))

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 100
	}
	limiter := restapi.NewRateLimitMiddleware(rateLimit, time.Minute, cfg.ApiKeys, coreApp.Clock)

	var handler http.Handler = mux
	handler = limiter.Handler()(handler)
	handler = restapi.MetricsHandler(coreApp.Metrics)(handler)
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger)(handler)
	handler = restapi.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return srv, limiter
}
