package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
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

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the backfill and returns the process exit code, so deferred
// cleanup happens before main exits.
func run(args []string) int {
	fs := flag.NewFlagSet("metrics-backfill", flag.ContinueOnError)
	typeFlag := fs.String("type", string(metrics.Daily), "snapshot type: daily or weekly")
	fromFlag := fs.String("from", "", "first date to recompute (YYYY-MM-DD)")
	toFlag := fs.String("to", "", "last date to recompute (YYYY-MM-DD), defaults to -from")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	t, ok := metrics.ParseMetricType(*typeFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid -type %q\n", *typeFlag)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitUsage
	}

	log := logger.New(cfg.Env)

	anchors, err := anchorsBetween(t, *fromFlag, *toFlag, cfg.GetReportLocation())
	if err != nil {
		log.Error("backfill aborted", "error", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Error("backfill aborted", "error", err)
		return exitFailed
	}
	defer stores.Close()

	svc := service.New(stores.Records, nil, cfg, clock.New(), log)
	precomputer := scheduler.NewPrecomputer(svc, stores.Snapshots, nil, cfg.GetReportLocation(), log)

	return backfill(ctx, precomputer, t, anchors, log)
}

type snapshotRunner interface {
	Run(ctx context.Context, t metrics.MetricType, anchor time.Time) (metrics.Snapshot, error)
}

// backfill recomputes every anchor, continuing past failures.
func backfill(ctx context.Context, runner snapshotRunner, t metrics.MetricType, anchors []time.Time, log *logger.Logger) int {
	log.Info("backfill started", "type", t, "snapshots", len(anchors))
	failed := 0
	for _, anchor := range anchors {
		if ctx.Err() != nil {
			break
		}
		if _, err := runner.Run(ctx, t, anchor); err != nil {
			failed++
		}
	}
	log.Info("backfill finished", "type", t, "snapshots", len(anchors), "failed", failed)
	if failed > 0 || ctx.Err() != nil {
		return exitFailed
	}
	return exitOK
}

// anchorsBetween lists every period anchor whose period intersects [from, to].
func anchorsBetween(t metrics.MetricType, from, to string, loc *time.Location) ([]time.Time, error) {
	if from == "" {
		return nil, fmt.Errorf("-from is required")
	}
	if to == "" {
		to = from
	}
	start, err := time.ParseInLocation(time.DateOnly, from, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid -from %q", from)
	}
	end, err := time.ParseInLocation(time.DateOnly, to, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid -to %q", to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("-to %s is before -from %s", to, from)
	}

	step := 1
	if t == metrics.Weekly {
		step = 7
	}
	var anchors []time.Time
	for a := metrics.NormalizeAnchor(t, start, loc); !a.After(end); a = a.AddDate(0, 0, step) {
		anchors = append(anchors, a)
	}
	return anchors, nil
}
