package scheduler

import (
	"context"
	"fmt"
	"time"

	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	precomputer *Precomputer
	log         *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, precomputer *Precomputer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:      server,
		mux:         mux,
		precomputer: precomputer,
		log:         log,
	}

	mux.HandleFunc(TaskMetricsPrecompute, w.handlePrecompute)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePrecompute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePrecomputePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	t, ok := metrics.ParseMetricType(payload.MetricType)
	if !ok {
		return fmt.Errorf("%w: unknown metric type %q", asynq.SkipRetry, payload.MetricType)
	}
	loc := w.precomputer.Location()
	date, err := time.ParseInLocation(time.DateOnly, payload.Date, loc)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q", asynq.SkipRetry, payload.Date)
	}

	_, err = w.precomputer.Run(ctx, t, metrics.NormalizeAnchor(t, date, loc))
	return err
}
