package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldservice_backend/internal/analytics"
	"fieldservice_backend/internal/bootstrap"
	apphttp "fieldservice_backend/internal/http"
	"fieldservice_backend/internal/http/router"
	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/internal/metrics/admin"
	"fieldservice_backend/internal/scheduler"
	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
	"fieldservice_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.GetHTTPAddr(), "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	stores, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open stores", "error", err)
		panic("failed to open stores: " + err.Error())
	}
	defer stores.Close()

	enqueuer, closeEnqueuer := initEnqueuer(cfg, log)
	if closeEnqueuer != nil {
		defer closeEnqueuer()
	}

	val := validator.New()
	clk := clock.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	analyticsModule := analytics.NewModule(stores.Records, stores.Snapshots, cfg, clk, log)
	metricsAdminModule := admin.NewModule(stores.Snapshots, enqueuer, cfg.GetReportLocation(), val)

	// The memory backend keeps snapshots in this process, so the triggers
	// run here instead of in cmd/scheduler.
	if cfg.StoreBackend == config.StoreBackendMemory {
		startInProcessScheduler(ctx, cfg, analyticsModule, stores.Snapshots, clk, log)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: stores.Records,
		Modules: []apphttp.Module{
			analyticsModule,
			metricsAdminModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.GetHTTPAddr())
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initEnqueuer(cfg config.SchedulerConfig, log *logger.Logger) (admin.Enqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; on-demand precompute disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func startInProcessScheduler(ctx context.Context, cfg *config.Config, m *analytics.Module, snapshots metrics.Store, clk clock.Clock, log *logger.Logger) {
	precomputer := scheduler.NewPrecomputer(m.Service(), snapshots, nil, cfg.GetReportLocation(), log)
	triggers, err := scheduler.PrecomputeTriggers(cfg, precomputer)
	if err != nil {
		log.Error("invalid precompute schedule", "error", err)
		panic("invalid precompute schedule: " + err.Error())
	}

	// Yesterday's snapshot is available immediately after start.
	if err := precomputer.RunFired(ctx, metrics.Daily, clk.Now()); err != nil {
		log.Warn("initial daily precompute failed", "error", err)
	}

	go scheduler.New(clk, cfg.GetReportLocation(), log, triggers...).Run(ctx)
}
