package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/internal/records/memstore"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryBackend(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.StoreBackendMemory}

	stores, err := Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &memstore.Store{}, stores.Records)
	assert.IsType(t, &metrics.MemoryStore{}, stores.Snapshots)
	assert.NoError(t, stores.Records.Ping(context.Background()))
}

func TestOpenMemoryBackendWithCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		StoreBackend:     config.StoreBackendMemory,
		RedisURL:         "redis://" + mr.Addr(),
		SnapshotCacheTTL: time.Minute,
	}

	stores, err := Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &metrics.CachedStore{}, stores.Snapshots)
}

func TestOpenMissingSeedFile(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.StoreBackendMemory, SeedFile: "testdata/missing.yaml"}

	_, err := Open(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}

func TestWithRetry(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), logger.Nop(), "flaky", 3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	err = WithRetry(context.Background(), logger.Nop(), "broken", 2, time.Millisecond, func() error {
		return errors.New("refused")
	})
	assert.EqualError(t, err, "broken: refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = WithRetry(ctx, logger.Nop(), "cancelled", 2, time.Millisecond, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
