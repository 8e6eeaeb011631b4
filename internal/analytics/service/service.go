// Package service implements the analytics operations on top of the generic
// query executor, plus the overview cache resolver.
package service

import (
	"context"
	"time"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/internal/records"
	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"
)

// SnapshotReader is the part of the metrics store the resolver needs.
type SnapshotReader interface {
	Latest(ctx context.Context, t metrics.MetricType, since time.Time) (*metrics.Snapshot, error)
}

// Service provides the analytics and customer read operations.
type Service struct {
	store       records.Reader
	exec        *query.Executor
	snapshots   SnapshotReader
	clock       clock.Clock
	location    *time.Location
	phoneRegion string
	geoStatus   bool
	log         *logger.Logger
}

// New creates the analytics service. snapshots may be nil, which disables the
// overview cache.
func New(store records.Reader, snapshots SnapshotReader, cfg config.MetricsConfig, clk clock.Clock, log *logger.Logger) *Service {
	loc := cfg.GetReportLocation()
	if loc == nil {
		loc = time.UTC
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		store:       store,
		exec:        query.NewExecutor(store),
		snapshots:   snapshots,
		clock:       clk,
		location:    loc,
		phoneRegion: cfg.GetPhoneRegion(),
		geoStatus:   cfg.GetGeoStatusBreakdown(),
		log:         log.WithComponent("analytics"),
	}
}

// Location is the report timezone.
func (s *Service) Location() *time.Location {
	return s.location
}

// Normalize applies the filter rules with the service clock and timezone.
func (s *Service) Normalize(p filter.Params, defaultLimit int) filter.Filter {
	return filter.Normalize(p, filter.Options{
		Now:          s.clock.Now(),
		Location:     s.location,
		DefaultLimit: defaultLimit,
	})
}

// joinedPredicates turns the filter fields that need joined entities into
// post-join predicates and reports which joins they require.
func joinedPredicates(f filter.Filter) ([]query.Predicate, query.Join) {
	var (
		preds []query.Predicate
		joins query.Join
	)
	if f.Province != "" {
		province := f.Province
		joins |= query.JoinLocation
		preds = append(preds, func(r query.Row) bool {
			return r.Location != nil && records.Fold(r.Location.Province) == records.Fold(province)
		})
	}
	if f.TeamLeader != nil {
		leader := *f.TeamLeader
		joins |= query.JoinTechnicians
		preds = append(preds, func(r query.Row) bool {
			for _, t := range r.Technicians {
				if records.ContainsFold(t.FirstName, leader.First) {
					return true
				}
				if leader.Last != "" && records.ContainsFold(t.LastName, leader.Last) {
					return true
				}
			}
			return false
		})
	}
	return preds, joins
}
