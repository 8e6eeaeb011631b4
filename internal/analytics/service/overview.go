package service

import (
	"context"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/format"
	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/internal/records"

	"golang.org/x/sync/errgroup"
)

// Overview serves the dashboard overview. An unfiltered request for today is
// answered from the latest daily snapshot when one exists.
func (s *Service) Overview(ctx context.Context, p filter.Params) (transport.OverviewResult, error) {
	f := s.Normalize(p, filter.DefaultLimit)

	if f.IsToday() {
		if data, ok := s.cachedOverview(ctx, f); ok {
			return transport.OverviewResult{Source: transport.SourcePrecomputed, Data: data}, nil
		}
	}

	data, err := s.ComputeOverview(ctx, f)
	if err != nil {
		return transport.OverviewResult{Source: transport.SourceComputed, Data: transport.EmptyOverview(f.Page, f.Limit)}, err
	}
	return transport.OverviewResult{Source: transport.SourceComputed, Data: data}, nil
}

// cachedOverview looks for a daily snapshot anchored within the 24 hours before
// today's start. Lookup errors count as a miss.
func (s *Service) cachedOverview(ctx context.Context, f filter.Filter) (transport.OverviewData, bool) {
	if s.snapshots == nil {
		return transport.OverviewData{}, false
	}

	since := filter.StartOfDay(f.Now, s.location).AddDate(0, 0, -1)
	snap, err := s.snapshots.Latest(ctx, metrics.Daily, since)
	if err != nil {
		s.log.WithContext(ctx).Warn("snapshot lookup failed, computing live", "error", err)
		return transport.OverviewData{}, false
	}
	if snap == nil || snap.Date.After(f.Now) {
		return transport.OverviewData{}, false
	}
	return snap.Payload, true
}

// ComputeOverview runs the live overview aggregation for f. The page and the
// statistics over the whole filtered set are computed concurrently.
func (s *Service) ComputeOverview(ctx context.Context, f filter.Filter) (transport.OverviewData, error) {
	preds, joins := joinedPredicates(f)

	pagePlan := query.Plan{
		Name:  "overview.page",
		Match: f.Match(),
		Joins: joins | query.JoinCustomer | query.JoinTechnicians,
		Where: preds,
		Page:  &query.Page{Number: f.Page, Limit: f.Limit},
	}
	statsPlan := query.Plan{
		Name:  "overview.stats",
		Match: f.Match(),
		Joins: joins | query.JoinLocation,
		Where: preds,
	}

	var page, stats query.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = s.exec.Run(gctx, pagePlan)
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.exec.Run(gctx, statsPlan)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.OverviewData{}, err
	}

	return transport.OverviewData{
		Jobs:          format.JobRows(page.Rows),
		Pagination:    format.Pagination(f.Page, f.Limit, page.Total),
		Metrics:       overviewMetrics(stats.Rows, f),
		Distributions: distributions(stats.Rows),
	}, nil
}

func overviewMetrics(rows []query.Row, f filter.Filter) transport.OverviewMetrics {
	today := records.Window{From: filter.StartOfDay(f.Now, f.Location), To: f.Now}

	m := transport.OverviewMetrics{TotalJobs: len(rows)}
	for _, r := range rows {
		closed := r.Job.Status.IsClosed()
		if closed {
			m.ClosedJobs++
		}
		if today.Contains(r.Job.CreatedAt) {
			m.TodayJobs++
		}
		if closed && today.Contains(r.Job.UpdatedAt) {
			m.TodayClosed++
		}
	}
	m.OpenJobs = m.TotalJobs - m.ClosedJobs
	return m
}

func distributions(rows []query.Row) transport.Distributions {
	return transport.Distributions{
		Status:   format.Counts(query.Distribution(rows, byStatus, false)),
		Priority: format.Counts(query.Distribution(rows, byPriority, false)),
		Province: format.Counts(query.Distribution(rows, byProvince, true)),
		District: format.Counts(query.Distribution(rows, byDistrict, true)),
	}
}

func byStatus(r query.Row) (string, bool) {
	return string(r.Job.Status), true
}

func byType(r query.Row) (string, bool) {
	return r.Job.Type, r.Job.Type != ""
}

func byPriority(r query.Row) (string, bool) {
	return r.Job.Priority, r.Job.Priority != ""
}

func byProvince(r query.Row) (string, bool) {
	if r.Location == nil || r.Location.Province == "" {
		return "", false
	}
	return r.Location.Province, true
}

func byDistrict(r query.Row) (string, bool) {
	if r.Location == nil || r.Location.District == "" {
		return "", false
	}
	return r.Location.District, true
}
