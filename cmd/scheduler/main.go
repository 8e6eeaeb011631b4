package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fieldservice_backend/internal/analytics/service"
	"fieldservice_backend/internal/bootstrap"
	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/internal/scheduler"
	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "daily", cfg.DailyCron, "weekly", cfg.WeeklyCron)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open stores", "error", err)
		panic("failed to open stores: " + err.Error())
	}
	defer stores.Close()

	clk := clock.New()
	svc := service.New(stores.Records, nil, cfg, clk, log)
	precomputer := scheduler.NewPrecomputer(svc, stores.Snapshots, initArchiver(ctx, cfg, log), cfg.GetReportLocation(), log)

	triggers, err := scheduler.PrecomputeTriggers(cfg, precomputer)
	if err != nil {
		log.Error("invalid precompute schedule", "error", err)
		panic("invalid precompute schedule: " + err.Error())
	}

	var wg sync.WaitGroup

	// On-demand precompute requests arrive through asynq.
	if cfg.GetRedisURL() != "" {
		worker, err := scheduler.NewWorker(cfg, precomputer, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	} else {
		log.Warn("REDIS_URL not configured; on-demand precompute worker disabled")
	}

	scheduler.New(clk, cfg.GetReportLocation(), log, triggers...).Run(ctx)
	wg.Wait()
	log.Info("scheduler stopped")
}

func initArchiver(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) metrics.Archiver {
	if !cfg.IsMinIOEnabled() {
		return nil
	}

	var archiver *metrics.MinIOArchiver
	if err := bootstrap.WithRetry(ctx, log, "snapshot archive bucket", 5, 2*time.Second, func() error {
		a, err := metrics.NewMinIOArchiver(ctx, cfg)
		if err != nil {
			return err
		}
		archiver = a
		return nil
	}); err != nil {
		log.Error("snapshot archive disabled", "error", err)
		return nil
	}
	log.Info("snapshot archive enabled", "bucket", cfg.GetMinioBucketSnapshots())
	return archiver
}
