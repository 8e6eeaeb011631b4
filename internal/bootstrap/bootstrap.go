// Package bootstrap opens the record and snapshot stores selected by
// configuration. It is shared by the command entry points.
package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/internal/records"
	"fieldservice_backend/internal/records/memstore"
	"fieldservice_backend/internal/records/pgstore"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/db"
	"fieldservice_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Config is everything Open reads.
type Config interface {
	config.DatabaseConfig
	config.StoreConfig
	config.RedisConfig
	config.MetricsConfig
}

// Stores bundles the opened backends.
type Stores struct {
	Records   records.Reader
	Snapshots metrics.Store
	Backend   string

	pool  *pgxpool.Pool
	redis *redis.Client
}

// Close releases the database pool and Redis connection.
func (s *Stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// Open connects the configured backend. The postgres backend runs migrations
// first; the memory backend loads SEED_FILE when set. When REDIS_URL is set
// the snapshot store gets a read-through cache.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*Stores, error) {
	stores := &Stores{Backend: cfg.GetStoreBackend()}

	switch cfg.GetStoreBackend() {
	case config.StoreBackendMemory:
		store := memstore.New()
		if path := cfg.GetSeedFile(); path != "" {
			loaded, err := memstore.LoadFile(path)
			if err != nil {
				return nil, fmt.Errorf("load seed file: %w", err)
			}
			store = loaded
			log.Info("seed records loaded", "path", path)
		}
		stores.Records = store
		stores.Snapshots = metrics.NewMemoryStore()

	default:
		var pool *pgxpool.Pool
		if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		stores.pool = pool
		log.Info("database connection established")

		if err := WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.Migrate(ctx, pool)
		}); err != nil {
			stores.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("database migrations complete")

		stores.Records = pgstore.New(pool)
		stores.Snapshots = metrics.NewPGStore(pool)
	}

	if cfg.GetRedisURL() != "" {
		rdb, err := NewRedis(cfg)
		if err != nil {
			stores.Close()
			return nil, err
		}
		stores.redis = rdb
		stores.Snapshots = metrics.NewCachedStore(stores.Snapshots, rdb, cfg.GetSnapshotCacheTTL(), log)
		log.Info("snapshot cache enabled", "ttl", cfg.GetSnapshotCacheTTL())
	}

	return stores, nil
}

// NewRedis builds a go-redis client from REDIS_URL.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// WithRetry runs fn up to attempts times with quadratic backoff.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
