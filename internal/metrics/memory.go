package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

type snapshotKey struct {
	metricType MetricType
	unix       int64
}

// MemoryStore keeps snapshots in process. It backs the memory store backend
// and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	rows  map[snapshotKey]Snapshot
	nowFn func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[snapshotKey]Snapshot), nowFn: time.Now}
}

func (m *MemoryStore) Upsert(ctx context.Context, snap Snapshot) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := snapshotKey{metricType: snap.MetricType, unix: snap.Date.Unix()}
	now := m.nowFn()
	snap.UpdatedAt = now
	if existing, ok := m.rows[key]; ok {
		snap.CreatedAt = existing.CreatedAt
	} else {
		snap.CreatedAt = now
	}
	m.rows[key] = snap
	return snap, nil
}

func (m *MemoryStore) Latest(ctx context.Context, t MetricType, since time.Time) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Snapshot
	for key, snap := range m.rows {
		if key.metricType != t || snap.Date.Before(since) {
			continue
		}
		if latest == nil || snap.Date.After(latest.Date) {
			s := snap
			latest = &s
		}
	}
	if latest == nil || !latest.Current() {
		return nil, nil
	}
	return latest, nil
}

func (m *MemoryStore) List(ctx context.Context, t MetricType, limit int) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Snapshot, 0)
	for key, snap := range m.rows {
		if key.metricType == t {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports how many snapshots are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
