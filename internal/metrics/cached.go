package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fieldservice_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const latestKeyPrefix = "metrics:snapshot:latest:"

// CachedStore decorates a Store with a Redis read-through cache of the newest
// snapshot per type. Upsert invalidates the cached entry. Redis failures are
// logged and the wrapped store is used directly.
type CachedStore struct {
	next Store
	rdb  redis.UniversalClient
	ttl  time.Duration
	log  *logger.Logger
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(next Store, rdb redis.UniversalClient, ttl time.Duration, log *logger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedStore{next: next, rdb: rdb, ttl: ttl, log: log.WithComponent("snapshot-cache")}
}

func latestKey(t MetricType) string {
	return latestKeyPrefix + string(t)
}

func (c *CachedStore) Upsert(ctx context.Context, snap Snapshot) (Snapshot, error) {
	stored, err := c.next.Upsert(ctx, snap)
	if err != nil {
		return Snapshot{}, err
	}
	if err := c.rdb.Del(ctx, latestKey(snap.MetricType)).Err(); err != nil {
		c.log.Warn("snapshot cache invalidation failed", "metric_type", snap.MetricType, "error", err)
	}
	return stored, nil
}

func (c *CachedStore) Latest(ctx context.Context, t MetricType, since time.Time) (*Snapshot, error) {
	raw, err := c.rdb.Get(ctx, latestKey(t)).Bytes()
	switch {
	case err == nil:
		var snap Snapshot
		if jsonErr := json.Unmarshal(raw, &snap); jsonErr == nil && snap.Current() && !snap.Date.Before(since) {
			return &snap, nil
		}
	case !errors.Is(err, redis.Nil):
		c.log.Warn("snapshot cache read failed", "metric_type", t, "error", err)
	}

	snap, err := c.next.Latest(ctx, t, since)
	if err != nil || snap == nil {
		return snap, err
	}

	if encoded, err := json.Marshal(snap); err == nil {
		if err := c.rdb.Set(ctx, latestKey(t), encoded, c.ttl).Err(); err != nil {
			c.log.Warn("snapshot cache write failed", "metric_type", t, "error", err)
		}
	}
	return snap, nil
}

func (c *CachedStore) List(ctx context.Context, t MetricType, limit int) ([]Snapshot, error) {
	return c.next.List(ctx, t, limit)
}
