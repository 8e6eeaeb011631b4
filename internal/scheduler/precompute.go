package scheduler

import (
	"context"
	"fmt"
	"time"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/platform/logger"
)

// OverviewComputer runs the live overview aggregation.
type OverviewComputer interface {
	ComputeOverview(ctx context.Context, f filter.Filter) (transport.OverviewData, error)
}

// Precomputer computes the overview for a fixed daily or weekly window and
// stores it as a snapshot.
type Precomputer struct {
	computer OverviewComputer
	store    metrics.Store
	archiver metrics.Archiver
	location *time.Location
	log      *logger.Logger
}

// NewPrecomputer wires the precomputation. archiver may be nil.
func NewPrecomputer(computer OverviewComputer, store metrics.Store, archiver metrics.Archiver, loc *time.Location, log *logger.Logger) *Precomputer {
	if loc == nil {
		loc = time.UTC
	}
	return &Precomputer{
		computer: computer,
		store:    store,
		archiver: archiver,
		location: loc,
		log:      log.WithComponent("precompute"),
	}
}

// Location is the timezone anchors are computed in.
func (p *Precomputer) Location() *time.Location {
	return p.location
}

// RunFired precomputes the period that ended before firedAt: yesterday for
// daily, last Monday-Sunday for weekly.
func (p *Precomputer) RunFired(ctx context.Context, t metrics.MetricType, firedAt time.Time) error {
	_, err := p.Run(ctx, t, metrics.Anchor(t, firedAt, p.location))
	return err
}

// Run computes and upserts the snapshot anchored at anchor. Running it again
// for the same anchor replaces the stored snapshot.
func (p *Precomputer) Run(ctx context.Context, t metrics.MetricType, anchor time.Time) (metrics.Snapshot, error) {
	window := metrics.WindowFor(t, anchor)
	log := p.log.WithContext(ctx).With(
		"metric_type", t,
		"window_start", window.From,
		"window_end", window.To,
	)

	data, err := p.computer.ComputeOverview(ctx, filter.ForWindow(window, p.location))
	if err != nil {
		log.Error("snapshot computation failed", "error", err)
		return metrics.Snapshot{}, fmt.Errorf("compute %s snapshot: %w", t, err)
	}

	stored, err := p.store.Upsert(ctx, metrics.Snapshot{
		MetricType:  t,
		Date:        anchor,
		Version:     metrics.SnapshotVersion,
		WindowStart: window.From,
		WindowEnd:   window.To,
		Payload:     data,
	})
	if err != nil {
		log.Error("snapshot upsert failed", "error", err)
		return metrics.Snapshot{}, fmt.Errorf("store %s snapshot: %w", t, err)
	}

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, stored); err != nil {
			log.Warn("snapshot archive failed", "error", err)
		}
	}

	log.Info("snapshot stored", "total_jobs", data.Metrics.TotalJobs)
	return stored, nil
}
