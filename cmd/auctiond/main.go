package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jensholdgaard/live-auction/internal/auction"
	"github.com/jensholdgaard/live-auction/internal/broadcast"
	"github.com/jensholdgaard/live-auction/internal/clock"
	"github.com/jensholdgaard/live-auction/internal/config"
	"github.com/jensholdgaard/live-auction/internal/health"
	"github.com/jensholdgaard/live-auction/internal/leader"
	"github.com/jensholdgaard/live-auction/internal/schedule"
	"github.com/jensholdgaard/live-auction/internal/server"
	"github.com/jensholdgaard/live-auction/internal/store"
	"github.com/jensholdgaard/live-auction/internal/telemetry"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/live-auction/internal/store/postgres"
	_ "github.com/jensholdgaard/live-auction/internal/store/stdsql"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup telemetry.
	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	// Open store using the configured driver (sqlx or stdsql).
	repos, err := store.Open(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	// Broadcast hub and auction engine.
	hub := broadcast.NewHub(cfg.Broadcast.SubscriberBuffer, logger)
	engine := auction.NewEngine(repos, hub, logger, tp.TracerProvider, clk)

	// Setup health checks.
	healthHandler := health.NewHandler(clk,
		health.Checker{
			Name:  "database",
			Check: repos.Ping,
		},
	)

	// HTTP server carries the API, the websocket stream and health checks.
	// It runs on all replicas; bid admission only works on the leader since
	// only the leader recovers and owns the in-memory room.
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler.LivenessHandler())
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler())

	srv := server.New(engine, hub, repos, logger)
	srv.Register(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting http server", slog.Int("port", cfg.Server.Port))
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			logger.ErrorContext(ctx, "http server error", slog.Any("error", listenErr))
		}
	}()

	checker := schedule.NewChecker(
		repos.Schedules, repos.Items, hub, logger, tp.TracerProvider, clk,
		cfg.Scheduler.CheckInterval, cfg.Scheduler.LeadWindow,
	)

	// startEngine is the core work that only the leader should run.
	startEngine := func(ctx context.Context) {
		// Rebuild the in-memory room from the store so an open item
		// survives leader failover.
		if recoverErr := engine.Recover(ctx); recoverErr != nil {
			logger.ErrorContext(ctx, "auction recovery failed", slog.Any("error", recoverErr))
			return
		}

		go checker.Run(ctx)

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctiond is running (leader)", slog.String("version", version))

		// Block until leadership is lost or process is shutting down.
		<-ctx.Done()

		healthHandler.SetReady(false)
	}

	if cfg.LeaderElection.Enabled {
		logger.InfoContext(ctx, "leader election enabled, waiting for leadership...")

		if leaderErr := leader.Run(ctx, cfg.LeaderElection, logger, startEngine, func() {
			logger.Info("lost leadership, shutting down...")
			cancel()
		}); leaderErr != nil {
			return fmt.Errorf("leader election: %w", leaderErr)
		}
	} else {
		// No leader election, run directly.
		if recoverErr := engine.Recover(ctx); recoverErr != nil {
			return fmt.Errorf("auction recovery: %w", recoverErr)
		}

		go checker.Run(ctx)

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctiond is running", slog.String("version", version))

		// Wait for shutdown signal.
		<-ctx.Done()
		logger.Info("shutting down...")

		healthHandler.SetReady(false)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
