package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chatlens/chatlens/internal/analyzer"
	"github.com/chatlens/chatlens/internal/api"
	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/dispatch"
	"github.com/chatlens/chatlens/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("chatlens starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Preference store (optional — analysis works without it, preferences
	// just won't persist).
	var prefs *store.Store
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		prefs = db
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set — running without preference persistence")
	}

	an := analyzer.New(cfg.MinMessages, slog.Default())

	// NATS dispatcher (optional — without it aggregation runs in-process).
	var bus *dispatch.Client
	if cfg.NatsURL != "" {
		client, err := dispatch.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		bus = client
		slog.Info("NATS connected", "url", cfg.NatsURL)

		worker := dispatch.NewWorker(client, an, slog.Default())
		if err := worker.Start(); err != nil {
			slog.Error("failed to start analysis worker", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("NATS_URL not set — aggregation runs in-process")
	}

	srv := api.NewServer(cfg.Port, cfg.APIToken, an, bus, prefs, cfg.AnalyzeTimeout)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("chatlens ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("chatlens stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
