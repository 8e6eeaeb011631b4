package service

import (
	"context"
	"sort"

	"fieldservice_backend/internal/analytics/filter"
	"fieldservice_backend/internal/analytics/format"
	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/internal/records"
	"fieldservice_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// recentReviewLimit is the number of reviews listed under the ranking.
const recentReviewLimit = 50

func hasReview(r query.Row) bool { return r.Review != nil }

func byReviewTechnician(r query.Row) (uuid.UUID, bool) {
	if r.Technician == nil {
		return uuid.Nil, false
	}
	return r.Technician.ID, true
}

// TechnicianPerformance ranks technicians by their average overall review
// score within the window and lists the most recent reviews.
func (s *Service) TechnicianPerformance(ctx context.Context, p filter.Params) (transport.TechnicianPerformance, error) {
	f := s.Normalize(p, filter.DefaultLimit)
	match := records.JobQuery{Window: &f.Window}

	var ranked, recent query.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ranked, err = s.exec.Run(gctx, query.Plan{
			Name:             "technicians.performance",
			Match:            match,
			Joins:            query.JoinTechnicians | query.JoinReview,
			TechnicianSource: query.FromReview,
			Unwind:           query.UnwindTechnicians,
			Where:            []query.Predicate{hasReview},
		})
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.exec.Run(gctx, query.Plan{
			Name:             "technicians.recent_reviews",
			Match:            match,
			Joins:            query.JoinTechnicians | query.JoinReview,
			TechnicianSource: query.FromReview,
			Where:            []query.Predicate{hasReview},
			Less: func(a, b query.Row) bool {
				return a.Review.CreatedAt.After(b.Review.CreatedAt)
			},
			Page: &query.Page{Number: 1, Limit: recentReviewLimit},
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.EmptyTechnicianPerformance(), err
	}

	return transport.TechnicianPerformance{
		Technicians:   technicianScores(ranked.Rows),
		RecentReviews: reviewItems(recent.Rows),
	}, nil
}

func technicianScores(rows []query.Row) []transport.TechnicianScore {
	groups := query.GroupBy(rows, byReviewTechnician)
	scores := make([]transport.TechnicianScore, 0, len(groups))
	for _, g := range groups {
		var timeR, manner, knowledge, overall, recommend []*float64
		for _, r := range g.Rows {
			timeR = append(timeR, r.Review.Time)
			manner = append(manner, r.Review.Manner)
			knowledge = append(knowledge, r.Review.Knowledge)
			overall = append(overall, r.Review.Overall)
			recommend = append(recommend, r.Review.Recommend)
		}
		scores = append(scores, transport.TechnicianScore{
			Technician:   format.TechnicianRef(*g.Rows[0].Technician),
			AvgTime:      transport.Rating(query.Average(timeR)),
			AvgManner:    transport.Rating(query.Average(manner)),
			AvgKnowledge: transport.Rating(query.Average(knowledge)),
			AvgOverall:   transport.Rating(query.Average(overall)),
			AvgRecommend: transport.Rating(query.Average(recommend)),
			ReviewCount:  len(g.Rows),
		})
	}
	// Stable: ties keep first-seen order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].AvgOverall > scores[j].AvgOverall
	})
	return scores
}

func reviewItems(rows []query.Row) []transport.ReviewItem {
	items := make([]transport.ReviewItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, transport.ReviewItem{
			Review:          *format.Review(r.Review),
			JobID:           r.Job.ID,
			JobNumber:       r.Job.JobNumber,
			TechnicianNames: format.TechnicianNames(r.Technicians),
		})
	}
	return items
}

// TechnicianJobs lists the jobs of one technician with summary counts over
// the whole filtered set.
func (s *Service) TechnicianJobs(ctx context.Context, p filter.Params) (transport.TechnicianJobs, error) {
	f := s.Normalize(p, filter.DefaultLimit)
	f.Province, f.TeamLeader = "", nil
	empty := transport.EmptyTechnicianJobs(f.Page, f.Limit)

	var (
		page, all  query.Result
		technician *transport.TechnicianRef
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page, err = s.exec.Run(gctx, query.Plan{
			Name:  "technicians.jobs",
			Match: f.Match(),
			Joins: query.JoinCustomer | query.JoinTechnicians,
			Page:  &query.Page{Number: f.Page, Limit: f.Limit},
		})
		return err
	})
	g.Go(func() (err error) {
		all, err = s.exec.Run(gctx, query.Plan{Name: "technicians.jobs_summary", Match: f.Match()})
		return err
	})
	if f.TechnicianID != nil {
		id := *f.TechnicianID
		g.Go(func() error {
			found, err := s.store.TechniciansByID(gctx, []uuid.UUID{id})
			if err != nil {
				return apperr.Store("technicians.profile", err)
			}
			if t, ok := found[id]; ok {
				ref := format.TechnicianRef(t)
				technician = &ref
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return empty, err
	}

	return transport.TechnicianJobs{
		Technician: technician,
		Jobs:       format.JobRows(page.Rows),
		Pagination: format.Pagination(f.Page, f.Limit, page.Total),
		Summary: transport.TechnicianJobsSummary{
			Total:      all.Total,
			ByStatus:   format.Counts(query.Distribution(all.Rows, byStatus, false)),
			ByType:     format.Counts(query.Distribution(all.Rows, byType, false)),
			ByPriority: format.Counts(query.Distribution(all.Rows, byPriority, false)),
		},
	}, nil
}
