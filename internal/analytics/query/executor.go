package query

import (
	"context"
	"sort"

	"fieldservice_backend/internal/records"
	"fieldservice_backend/platform/apperr"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "fieldservice_backend/internal/analytics/query"

// Executor runs plans against a record store.
type Executor struct {
	store  records.Reader
	tracer trace.Tracer
}

func NewExecutor(store records.Reader) *Executor {
	return &Executor{store: store, tracer: otel.Tracer(tracerName)}
}

// Run executes plan. Store failures are returned as apperr.KindStore.
func (e *Executor) Run(ctx context.Context, plan Plan) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "query."+plan.Name)
	defer span.End()

	result, err := e.run(ctx, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return Result{Rows: []Row{}}, apperr.Store(plan.Name, err)
	}

	span.SetAttributes(
		attribute.Int("query.total", result.Total),
		attribute.Int("query.rows", len(result.Rows)),
	)
	return result, nil
}

func (e *Executor) run(ctx context.Context, plan Plan) (Result, error) {
	jobs, err := e.store.FindJobs(ctx, plan.Match)
	if err != nil {
		return Result{}, err
	}

	rel, err := e.load(ctx, plan, jobs)
	if err != nil {
		return Result{}, err
	}

	rows := make([]Row, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, rel.row(plan, job))
	}
	rows = unwind(rows, plan.Unwind)
	rows = where(rows, plan.Where)

	if plan.Less != nil {
		sort.SliceStable(rows, func(i, j int) bool { return plan.Less(rows[i], rows[j]) })
	}

	total := len(rows)
	if plan.Page != nil {
		rows = paginate(rows, *plan.Page)
	}
	return Result{Rows: rows, Total: total}, nil
}

type related struct {
	locations   map[uuid.UUID]records.JobLocation
	customers   map[uuid.UUID]records.Customer
	technicians map[uuid.UUID]records.TechnicianProfile
	reviews     map[uuid.UUID]records.CustomerReview
}

// load resolves related entities in two concurrent phases: locations and
// reviews first, then customers and technicians whose ids come from them.
func (e *Executor) load(ctx context.Context, plan Plan, jobs []records.Job) (related, error) {
	var rel related
	if len(jobs) == 0 {
		return rel, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if plan.needsLocations() {
		ids := collect(jobs, func(j records.Job) []uuid.UUID {
			if j.LocationID == nil {
				return nil
			}
			return []uuid.UUID{*j.LocationID}
		})
		g.Go(func() (err error) {
			rel.locations, err = e.store.LocationsByID(gctx, ids)
			return err
		})
	}
	if plan.needsReviews() {
		ids := collect(jobs, func(j records.Job) []uuid.UUID { return []uuid.UUID{j.ID} })
		g.Go(func() (err error) {
			rel.reviews, err = e.store.ReviewsByJob(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return related{}, err
	}

	g, gctx = errgroup.WithContext(ctx)
	if plan.Joins.Has(JoinCustomer) {
		ids := make([]uuid.UUID, 0, len(rel.locations))
		seen := make(map[uuid.UUID]struct{}, len(rel.locations))
		for _, loc := range rel.locations {
			if loc.CustomerID == nil {
				continue
			}
			if _, dup := seen[*loc.CustomerID]; !dup {
				seen[*loc.CustomerID] = struct{}{}
				ids = append(ids, *loc.CustomerID)
			}
		}
		g.Go(func() (err error) {
			rel.customers, err = e.store.CustomersByID(gctx, ids)
			return err
		})
	}
	if plan.Joins.Has(JoinTechnicians) {
		ids := collect(jobs, func(j records.Job) []uuid.UUID {
			return rel.technicianIDs(plan.TechnicianSource, j)
		})
		g.Go(func() (err error) {
			rel.technicians, err = e.store.TechniciansByID(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return related{}, err
	}
	return rel, nil
}

func (rel related) technicianIDs(source TechnicianSource, job records.Job) []uuid.UUID {
	if source == FromReview {
		if review, ok := rel.reviews[job.ID]; ok {
			return review.TechnicianIDs
		}
		return nil
	}
	return job.TechnicianIDs
}

// row attaches related entities to job. Missing entities stay nil.
func (rel related) row(plan Plan, job records.Job) Row {
	r := Row{Job: job}

	if plan.needsLocations() && job.LocationID != nil {
		if loc, ok := rel.locations[*job.LocationID]; ok {
			r.Location = &loc
			if plan.Joins.Has(JoinCustomer) && loc.CustomerID != nil {
				if c, ok := rel.customers[*loc.CustomerID]; ok {
					r.Customer = &c
				}
			}
		}
	}
	if plan.needsReviews() {
		if review, ok := rel.reviews[job.ID]; ok {
			r.Review = &review
		}
	}
	if plan.Joins.Has(JoinTechnicians) {
		ids := rel.technicianIDs(plan.TechnicianSource, job)
		r.Technicians = make([]records.TechnicianProfile, 0, len(ids))
		for _, id := range ids {
			if t, ok := rel.technicians[id]; ok {
				r.Technicians = append(r.Technicians, t)
			}
		}
	}
	return r
}

func unwind(rows []Row, mode Unwind) []Row {
	if mode == UnwindNone {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if len(r.Technicians) == 0 {
			if mode == UnwindTechniciansPreserve {
				out = append(out, r)
			}
			continue
		}
		for i := range r.Technicians {
			expanded := r
			expanded.Technician = &r.Technicians[i]
			out = append(out, expanded)
		}
	}
	return out
}

func where(rows []Row, preds []Predicate) []Row {
	if len(preds) == 0 {
		return rows
	}
	out := rows[:0]
rowLoop:
	for _, r := range rows {
		for _, p := range preds {
			if !p(r) {
				continue rowLoop
			}
		}
		out = append(out, r)
	}
	return out
}

func paginate(rows []Row, page Page) []Row {
	if page.Limit <= 0 {
		return rows
	}
	number := max(page.Number, 1)
	pages := (len(rows) + page.Limit - 1) / page.Limit
	if number-1 >= pages {
		return rows[:0]
	}
	start := (number - 1) * page.Limit
	end := min(start+page.Limit, len(rows))
	return rows[start:end]
}

func collect(jobs []records.Job, ids func(records.Job) []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(jobs))
	out := make([]uuid.UUID, 0, len(jobs))
	for _, j := range jobs {
		for _, id := range ids(j) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
