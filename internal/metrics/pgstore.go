package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists snapshots in the metric_snapshots table.
type PGStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PGStore)(nil)

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const snapshotColumns = `metric_type, snapshot_date, version, window_start, window_end, payload, created_at, updated_at`

func (s *PGStore) Upsert(ctx context.Context, snap Snapshot) (Snapshot, error) {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot payload: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO metric_snapshots (metric_type, snapshot_date, version, window_start, window_end, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (metric_type, snapshot_date) DO UPDATE SET
			version = EXCLUDED.version,
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			payload = EXCLUDED.payload,
			updated_at = now()
		RETURNING `+snapshotColumns,
		string(snap.MetricType), snap.Date, snap.Version, snap.WindowStart, snap.WindowEnd, payload,
	)

	stored, err := scanSnapshot(row)
	if err != nil {
		return Snapshot{}, fmt.Errorf("upsert snapshot: %w", err)
	}
	return stored, nil
}

func (s *PGStore) Latest(ctx context.Context, t MetricType, since time.Time) (*Snapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM metric_snapshots
		WHERE metric_type = $1 AND snapshot_date >= $2
		ORDER BY snapshot_date DESC
		LIMIT 1
	`, string(t), since)

	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if !snap.Current() {
		return nil, nil
	}
	return &snap, nil
}

func (s *PGStore) List(ctx context.Context, t MetricType, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+snapshotColumns+`
		FROM metric_snapshots
		WHERE metric_type = $1
		ORDER BY snapshot_date DESC
		LIMIT $2
	`, string(t), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var (
		snap       Snapshot
		metricType string
		payload    []byte
	)
	if err := row.Scan(
		&metricType,
		&snap.Date,
		&snap.Version,
		&snap.WindowStart,
		&snap.WindowEnd,
		&payload,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	); err != nil {
		return Snapshot{}, err
	}
	snap.MetricType = MetricType(metricType)
	if snap.Current() {
		if err := json.Unmarshal(payload, &snap.Payload); err != nil {
			return Snapshot{}, fmt.Errorf("decode snapshot payload: %w", err)
		}
	}
	return snap, nil
}
