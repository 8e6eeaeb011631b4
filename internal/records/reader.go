package records

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Window is an inclusive createdAt range.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies within [From, To].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// JobQuery is the match stage pushed down to the store. Zero values mean
// "no constraint", except LocationIDs where a non-nil empty slice matches
// nothing.
type JobQuery struct {
	Window       *Window
	Statuses     []Status
	Types        []string
	Priorities   []string
	TechnicianID *uuid.UUID
	LocationIDs  []uuid.UUID
	JobID        *uuid.UUID
}

// Matches evaluates the query against a job. Stores that cannot push a
// predicate down use it as the reference semantics.
func (q JobQuery) Matches(job Job) bool {
	if q.Window != nil && !q.Window.Contains(job.CreatedAt) {
		return false
	}
	if q.JobID != nil && job.ID != *q.JobID {
		return false
	}
	if len(q.Statuses) > 0 && !contains(q.Statuses, job.Status) {
		return false
	}
	if len(q.Types) > 0 && !contains(q.Types, job.Type) {
		return false
	}
	if len(q.Priorities) > 0 && !contains(q.Priorities, job.Priority) {
		return false
	}
	if q.TechnicianID != nil && !contains(job.TechnicianIDs, *q.TechnicianID) {
		return false
	}
	if q.LocationIDs != nil {
		if job.LocationID == nil || !contains(q.LocationIDs, *job.LocationID) {
			return false
		}
	}
	return true
}

// CustomerQuery drives the customer listing. PhoneForms are alternative
// spellings of Search matched against the phone column.
type CustomerQuery struct {
	Search     string
	PhoneForms []string
	Offset     int
	Limit      int
}

// Reader is the read-only record store used by the analytics engine.
// Batch lookups return maps keyed by id; unknown ids are simply absent.
type Reader interface {
	// FindJobs returns matching jobs ordered by createdAt descending, id
	// ascending.
	FindJobs(ctx context.Context, q JobQuery) ([]Job, error)
	LocationsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]JobLocation, error)
	LocationsByCustomer(ctx context.Context, customerID uuid.UUID) ([]JobLocation, error)
	CustomersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Customer, error)
	// SearchCustomers returns one page of customers ordered by name and the
	// total number of matches.
	SearchCustomers(ctx context.Context, q CustomerQuery) ([]Customer, int, error)
	TechniciansByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]TechnicianProfile, error)
	ReviewsByJob(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID]CustomerReview, error)
	StatusHistory(ctx context.Context, jobID uuid.UUID) ([]StatusEvent, error)
	Ping(ctx context.Context) error
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
