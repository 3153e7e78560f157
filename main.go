package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pthm-cable/symbiosis/config"
	"github.com/pthm-cable/symbiosis/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output wave and perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = run the scenario to the end)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = disabled)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		Logger:    logger,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}

	var srv *http.Server
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts.Registerer = reg
		defer func() {
			if srv == nil {
				return
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown", "error", err)
			}
		}()
		srv = &http.Server{Addr: *metricsAddr, ReadHeaderTimeout: 5 * time.Second}
	}

	g, err := game.NewGame(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}

	if srv != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", g.MetricsHandler())
		srv.Handler = mux
		go func() {
			slog.Info("serving metrics", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	slog.Info("starting headless scenario",
		"waves", cfg.Scenario.Waves,
		"builds", len(cfg.Scenario.Builds),
		"max_ticks", *maxTicks,
		"output_dir", *outputDir,
	)

	res, runErr := g.RunScenario(ctx, *maxTicks)
	if err := g.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("scenario failed", "error", runErr)
		os.Exit(1)
	}

	slog.Info("done",
		"ticks", res.Ticks,
		"waves_completed", res.WavesCompleted,
		"lives", res.Lives,
		"leaks", res.Leaks,
		"base_destroyed", res.BaseDestroyed,
		"biomass", res.Biomass,
		"energy", res.Energy,
	)
}
