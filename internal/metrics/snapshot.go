// Package metrics owns the precomputed overview snapshots: their versioned
// shape, the fixed daily/weekly windows and the stores that persist them.
package metrics

import (
	"context"
	"time"

	"fieldservice_backend/internal/analytics/transport"
)

// MetricType is the snapshot granularity.
type MetricType string

const (
	Daily  MetricType = "daily"
	Weekly MetricType = "weekly"
)

// ParseMetricType accepts "daily" or "weekly".
func ParseMetricType(s string) (MetricType, bool) {
	switch MetricType(s) {
	case Daily, Weekly:
		return MetricType(s), true
	}
	return "", false
}

// SnapshotVersion is bumped whenever transport.OverviewData changes shape.
// Snapshots written under another version are treated as absent.
const SnapshotVersion = 1

// Snapshot is one precomputed overview keyed by (MetricType, Date). Date is
// the window anchor: the first instant of the covered day or week.
type Snapshot struct {
	MetricType  MetricType             `json:"metricType"`
	Date        time.Time              `json:"date"`
	Version     int                    `json:"version"`
	WindowStart time.Time              `json:"windowStart"`
	WindowEnd   time.Time              `json:"windowEnd"`
	Payload     transport.OverviewData `json:"payload"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

// Current reports whether s was written with the running SnapshotVersion.
func (s Snapshot) Current() bool {
	return s.Version == SnapshotVersion
}

// Summary is the listing shape of a snapshot without its payload.
type Summary struct {
	MetricType  MetricType `json:"metricType"`
	Date        time.Time  `json:"date"`
	Version     int        `json:"version"`
	WindowStart time.Time  `json:"windowStart"`
	WindowEnd   time.Time  `json:"windowEnd"`
	TotalJobs   int        `json:"totalJobs"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (s Snapshot) Summary() Summary {
	return Summary{
		MetricType:  s.MetricType,
		Date:        s.Date,
		Version:     s.Version,
		WindowStart: s.WindowStart,
		WindowEnd:   s.WindowEnd,
		TotalJobs:   s.Payload.Metrics.TotalJobs,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Store persists snapshots with at most one row per (MetricType, Date).
type Store interface {
	// Upsert inserts or replaces the snapshot for its key and returns the
	// stored row. CreatedAt of an existing row is preserved.
	Upsert(ctx context.Context, snap Snapshot) (Snapshot, error)
	// Latest returns the newest snapshot of type t anchored at or after since.
	// It returns nil when there is none or when the newest one was written
	// under another SnapshotVersion.
	Latest(ctx context.Context, t MetricType, since time.Time) (*Snapshot, error)
	// List returns up to limit snapshots of type t, newest first.
	List(ctx context.Context, t MetricType, limit int) ([]Snapshot, error)
}
