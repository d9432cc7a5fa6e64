package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/GTD-TFS/bus/internal/appconf"
	"github.com/GTD-TFS/bus/internal/gtfs"
	"github.com/GTD-TFS/bus/internal/logging"
	"github.com/GTD-TFS/bus/internal/publish"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func main() {
	// Missing .env is fine, flags and real env vars still apply.
	_ = godotenv.Load()

	var (
		configPath     = flag.String("config", envOr("CONFIG_FILE", ""), "Path to JSON configuration file")
		port           = flag.Int("port", envIntOr("PORT", 4000), "API server port")
		env            = flag.String("env", envOr("ENV", "development"), "Environment (development|test|production)")
		apiKeys        = flag.String("api-keys", envOr("API_KEYS", ""), "Comma-separated API keys")
		rateLimit      = flag.Int("rate-limit", envIntOr("RATE_LIMIT", 100), "Requests per minute per API key")
		natsURL        = flag.String("nats-url", envOr("NATS_URL", ""), "NATS server URL for position publishing (empty disables)")
		gtfsSources    = flag.String("gtfs-sources", envOr("GTFS_SOURCES", ""), "Comma-separated GTFS zip sources, tried in order")
		lines          = flag.String("lines", envOr("LINES", ""), "Comma-separated initial line filter")
		destinations   = flag.String("destinations", envOr("DESTINATIONS", ""), "Comma-separated destination stop IDs")
		refreshMinutes = flag.Int("refresh-minutes", envIntOr("REFRESH_MINUTES", 0), "Feed refresh interval in minutes (0 disables)")
		verbose        = flag.Bool("verbose", os.Getenv("VERBOSE") == "true", "Enable debug logging")
	)
	flag.Parse()

	cfg := appconf.Config{
		Port:      *port,
		Env:       appconf.EnvFromString(*env),
		ApiKeys:   ParseAPIKeys(*apiKeys),
		RateLimit: *rateLimit,
		NATSURL:   *natsURL,
		Verbose:   *verbose,
	}

	gtfsCfg := gtfs.Config{
		Sources:            splitList(*gtfsSources),
		InitialLines:       splitList(*lines),
		DestinationStopIDs: splitList(*destinations),
		RefreshInterval:    time.Duration(*refreshMinutes) * time.Minute,
		Env:                cfg.Env,
		Verbose:            cfg.Verbose,
	}

	if *configPath != "" {
		fileCfg, err := appconf.LoadFromFile(*configPath)
		if err != nil {
			slog.Error("failed to load config file", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg, gtfsCfg = mergeFileConfig(fileCfg, cfg, gtfsCfg)
	}

	if len(gtfsCfg.Sources) == 0 {
		slog.Error("no GTFS sources configured, set -gtfs-sources or provide a config file")
		os.Exit(1)
	}

	if err := run(cfg, gtfsCfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return ParseAPIKeys(raw)
}

// mergeFileConfig applies file settings on top of flag defaults. Flags
// explicitly set on the command line still win for scalar settings.
func mergeFileConfig(file *appconf.JSONConfig, cfg appconf.Config, gtfsCfg gtfs.Config) (appconf.Config, gtfs.Config) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["port"] && file.Port != 0 {
		cfg.Port = file.Port
	}
	if !set["env"] && file.Env != "" {
		cfg.Env = appconf.EnvFromString(file.Env)
	}
	if !set["api-keys"] && len(file.ApiKeys) > 0 {
		cfg.ApiKeys = file.ApiKeys
	}
	if !set["rate-limit"] && file.RateLimit != 0 {
		cfg.RateLimit = file.RateLimit
	}
	if !set["nats-url"] && file.NATSURL != "" {
		cfg.NATSURL = file.NATSURL
	}
	if !set["verbose"] && file.Verbose {
		cfg.Verbose = true
	}

	data := file.ToGtfsConfigData()
	if !set["gtfs-sources"] && len(data.Sources) > 0 {
		gtfsCfg.Sources = data.Sources
	}
	if !set["lines"] && len(data.Lines) > 0 {
		gtfsCfg.InitialLines = data.Lines
	}
	if !set["destinations"] && len(data.Destinations) > 0 {
		gtfsCfg.DestinationStopIDs = data.Destinations
	}
	if !set["refresh-minutes"] && data.RefreshInterval > 0 {
		gtfsCfg.RefreshInterval = data.RefreshInterval
	}
	gtfsCfg.StaticAuthHeaderKey = data.StaticAuthHeaderKey
	gtfsCfg.StaticAuthHeaderValue = data.StaticAuthHeaderValue
	gtfsCfg.DestinationLabels = data.DestinationLabels
	gtfsCfg.UpcomingWindow = data.UpcomingWindow
	gtfsCfg.SearchFilteredLinesOnly = data.SearchFilteredOnly
	gtfsCfg.Env = cfg.Env
	gtfsCfg.Verbose = cfg.Verbose

	return cfg, gtfsCfg
}

func run(cfg appconf.Config, gtfsCfg gtfs.Config) error {
	coreApp, err := BuildApplication(cfg, gtfsCfg)
	if err != nil {
		return err
	}

	coreApp.GtfsManager.Start()
	defer coreApp.GtfsManager.Shutdown()

	if cfg.NATSURL != "" {
		publisher, err := publish.NewNATSPublisher(cfg.NATSURL, 15*time.Second, coreApp.Logger, coreApp.Metrics)
		if err != nil {
			logging.LogError(coreApp.Logger, "NATS publisher unavailable, continuing without it", err)
		} else {
			coreApp.Publisher = publisher
			go publisher.Run(coreApp)
			defer publisher.Stop()
		}
	}

	srv, limiter := CreateServer(coreApp, cfg)
	defer limiter.Stop()

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		coreApp.Logger.Info("shutting down server", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	coreApp.Logger.Info("starting server",
		"addr", srv.Addr,
		"env", cfg.Env.String(),
		"lines", coreApp.GtfsManager.Lines(),
	)

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return err
	}

	coreApp.Logger.Info("server stopped")
	return nil
}
