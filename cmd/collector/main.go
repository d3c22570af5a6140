package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avcheng/market-attention/internal/bus"
	"github.com/avcheng/market-attention/internal/config"
	"github.com/avcheng/market-attention/internal/fetch"
	"github.com/avcheng/market-attention/internal/ingest"
	"github.com/avcheng/market-attention/internal/model"
	"github.com/avcheng/market-attention/internal/scheduler"
	"github.com/avcheng/market-attention/internal/source"
	"github.com/avcheng/market-attention/internal/store"
	"github.com/avcheng/market-attention/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/collector.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting collector",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	wl, err := cfg.BuildWatchlist()
	if err != nil {
		logger.Error("invalid watchlist", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"watchlist", wl.Len(),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to the store (runs migrations)
	logger.Info("connecting to database",
		"host", cfg.Database.Postgres.Host,
		"port", cfg.Database.Postgres.Port,
		"database", cfg.Database.Postgres.Name,
	)

	st, err := store.NewPostgres(ctx, cfg.Database.Postgres)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	logger.Info("database connected")

	// Downstream fan-out
	var pub bus.Publisher = &bus.NoopPublisher{}
	if cfg.Bus.URL != "" {
		natsPub, err := bus.NewNATSPublisher(cfg.Bus.URL)
		if err != nil {
			logger.Error("failed to connect to bus", "error", err)
			os.Exit(1)
		}
		pub = natsPub
		logger.Info("bus connected", "url", cfg.Bus.URL)
	}
	defer pub.Close()

	processor := ingest.NewProcessor(st, pub, wl, logger)

	entries := buildEntries(cfg, wl, logger)
	if len(entries) == 0 {
		logger.Error("no sources enabled")
		os.Exit(1)
	}

	sched := scheduler.New(scheduler.Config{
		MinBackoff:       cfg.Scheduler.MinBackoff,
		MaxBackoff:       cfg.Scheduler.MaxBackoff,
		StreamRedialBase: cfg.Scheduler.StreamRedialBase,
		StreamRedialMax:  cfg.Scheduler.StreamRedialMax,
	}, processor, pub, entries, logger)

	// Start health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(st, sched, cfg.Metrics.Path),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("collector running",
		"instance_id", cfg.Instance.ID,
		"sources", len(entries),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("collector stopped")
}

// buildEntries constructs one scheduler entry per enabled source.
func buildEntries(cfg *config.CollectorConfig, wl model.Watchlist, logger *slog.Logger) []scheduler.Entry {
	var entries []scheduler.Entry
	timeout := cfg.Scheduler.RequestTimeout

	if cfg.Sources.GDELT.Enabled {
		client := fetch.NewClient(
			fetch.WithLogger(logger),
			fetch.WithTimeout(timeout),
			fetch.WithRetries(3, time.Second),
			fetch.WithRateLimit(cfg.Sources.GDELT.RateLimit, 1),
		)
		entries = append(entries, scheduler.Entry{
			Adapter:  source.NewGDELT(cfg.Sources.GDELT, wl, client, logger),
			Interval: cfg.Sources.GDELT.Interval,
		})
	}

	if cfg.Sources.RSS.Enabled {
		entries = append(entries, scheduler.Entry{
			Adapter:  source.NewRSS(cfg.Sources.RSS, timeout, logger),
			Interval: cfg.Sources.RSS.Interval,
		})
	}

	if cfg.Sources.Twitter.Enabled {
		client := fetch.NewClient(
			fetch.WithLogger(logger),
			fetch.WithTimeout(timeout),
			fetch.WithRetries(3, time.Second),
			fetch.WithHeader("Cookie", cfg.Sources.Twitter.SessionCookie),
		)
		entries = append(entries, scheduler.Entry{
			Adapter:  source.NewTwitter(cfg.Sources.Twitter, wl, client, logger),
			Interval: cfg.Sources.Twitter.Interval,
		})
	}

	if cfg.Sources.Reddit.Enabled {
		entries = append(entries, scheduler.Entry{
			Adapter: source.NewReddit(cfg.Sources.Reddit, logger),
		})
	}

	return entries
}

// createHealthHandler creates the HTTP handler for health checks and
// per-source stats.
func createHealthHandler(st *store.Postgres, sched *scheduler.Scheduler, statsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		if err := st.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// A source that stopped (auth failure) degrades but does not kill
		// the pipeline.
		stats := sched.Stats()
		running := 0
		for _, s := range stats {
			if !s.Stopped {
				running++
			}
		}
		health.Components["sources"] = map[string]any{
			"configured": len(stats),
			"running":    running,
		}
		if running == 0 {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc(statsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sched.Stats())
	})

	return mux
}
