// Package memstore is an in-memory records.Reader seeded from YAML. It backs
// the memory store backend and the analytics tests.
package memstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"fieldservice_backend/internal/records"

	"github.com/google/uuid"
)

// Store keeps every entity in maps guarded by a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	jobs        map[uuid.UUID]records.Job
	locations   map[uuid.UUID]records.JobLocation
	customers   map[uuid.UUID]records.Customer
	technicians map[uuid.UUID]records.TechnicianProfile
	reviews     map[uuid.UUID]records.CustomerReview // keyed by job id
	history     map[uuid.UUID][]records.StatusEvent
}

var _ records.Reader = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		jobs:        make(map[uuid.UUID]records.Job),
		locations:   make(map[uuid.UUID]records.JobLocation),
		customers:   make(map[uuid.UUID]records.Customer),
		technicians: make(map[uuid.UUID]records.TechnicianProfile),
		reviews:     make(map[uuid.UUID]records.CustomerReview),
		history:     make(map[uuid.UUID][]records.StatusEvent),
	}
}

// LoadFile builds a store from a YAML seed file.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load builds a store from a YAML seed document.
func Load(r io.Reader) (*Store, error) {
	seed, err := decodeSeed(r)
	if err != nil {
		return nil, err
	}
	s := New()
	if err := seed.apply(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) PutJob(job records.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *Store) PutLocation(loc records.JobLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.ID] = loc
}

func (s *Store) PutCustomer(c records.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

func (s *Store) PutTechnician(t records.TechnicianProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.technicians[t.ID] = t
}

// PutReview stores a review, replacing any earlier review of the same job.
func (s *Store) PutReview(r records.CustomerReview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[r.JobID] = r
}

func (s *Store) AppendHistory(ev records.StatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[ev.JobID] = append(s.history[ev.JobID], ev)
}

func (s *Store) FindJobs(ctx context.Context, q records.JobQuery) ([]records.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.Job, 0)
	for _, job := range s.jobs {
		if q.Matches(job) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) LocationsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]records.JobLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick(s.locations, ids), nil
}

func (s *Store) LocationsByCustomer(ctx context.Context, customerID uuid.UUID) ([]records.JobLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]records.JobLocation, 0)
	for _, loc := range s.locations {
		if loc.CustomerID != nil && *loc.CustomerID == customerID {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) CustomersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]records.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick(s.customers, ids), nil
}

func (s *Store) SearchCustomers(ctx context.Context, q records.CustomerQuery) ([]records.Customer, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]records.Customer, 0)
	for _, c := range s.customers {
		if customerMatches(c, q) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matched[start:end], total, nil
}

func customerMatches(c records.Customer, q records.CustomerQuery) bool {
	if q.Search == "" {
		return true
	}
	if records.ContainsFold(c.Name, q.Search) ||
		records.ContainsFold(c.Phone, q.Search) ||
		records.ContainsFold(c.Email, q.Search) {
		return true
	}
	for _, form := range q.PhoneForms {
		if form != "" && records.ContainsFold(c.Phone, form) {
			return true
		}
	}
	return false
}

func (s *Store) TechniciansByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]records.TechnicianProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick(s.technicians, ids), nil
}

func (s *Store) ReviewsByJob(ctx context.Context, jobIDs []uuid.UUID) (map[uuid.UUID]records.CustomerReview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pick(s.reviews, jobIDs), nil
}

func (s *Store) StatusHistory(ctx context.Context, jobID uuid.UUID) ([]records.StatusEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.history[jobID]
	out := make([]records.StatusEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangedAt.Before(out[j].ChangedAt) })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func pick[T any](src map[uuid.UUID]T, ids []uuid.UUID) map[uuid.UUID]T {
	out := make(map[uuid.UUID]T, len(ids))
	for _, id := range ids {
		if v, ok := src[id]; ok {
			out[id] = v
		}
	}
	return out
}
