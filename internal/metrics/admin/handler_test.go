package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/internal/metrics"
	"fieldservice_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ict = time.FixedZone("ICT", 7*3600)

type fakeEnqueuer struct {
	calls  []time.Time
	queued bool
	err    error
}

func (f *fakeEnqueuer) EnqueuePrecompute(_ context.Context, _ metrics.MetricType, anchor time.Time) (bool, error) {
	f.calls = append(f.calls, anchor)
	return f.queued, f.err
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func newEngine(store metrics.Store, enq Enqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewHandler(store, enq, ict, validator.New()).RegisterRoutes(engine.Group("/api/v1/admin/metrics"))
	return engine
}

func do(t *testing.T, engine *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestListSnapshots(t *testing.T) {
	store := metrics.NewMemoryStore()
	for day := 16; day <= 18; day++ {
		anchor := time.Date(2026, 10, day, 0, 0, 0, 0, ict)
		_, err := store.Upsert(context.Background(), metrics.Snapshot{
			MetricType: metrics.Daily,
			Date:       anchor,
			Version:    metrics.SnapshotVersion,
			Payload:    transport.OverviewData{Metrics: transport.OverviewMetrics{TotalJobs: day}},
		})
		require.NoError(t, err)
	}
	engine := newEngine(store, nil)

	code, env := do(t, engine, http.MethodGet, "/api/v1/admin/metrics/snapshots?type=daily&limit=2", "")
	require.Equal(t, http.StatusOK, code)

	var summaries []metrics.Summary
	require.NoError(t, json.Unmarshal(env.Data, &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, 18, summaries[0].TotalJobs)
	assert.Equal(t, 17, summaries[1].TotalJobs)
}

func TestListSnapshotsValidation(t *testing.T) {
	engine := newEngine(metrics.NewMemoryStore(), nil)

	code, env := do(t, engine, http.MethodGet, "/api/v1/admin/metrics/snapshots?type=monthly", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "oneof", env.Details["Type"])

	code, _ = do(t, engine, http.MethodGet, "/api/v1/admin/metrics/snapshots?type=daily&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPrecomputeNormalizesAnchor(t *testing.T) {
	enq := &fakeEnqueuer{queued: true}
	engine := newEngine(metrics.NewMemoryStore(), enq)

	code, env := do(t, engine, http.MethodPost, "/api/v1/admin/metrics/precompute", `{"metricType":"weekly","date":"2026-10-15"}`)
	require.Equal(t, http.StatusAccepted, code)

	var resp PrecomputeResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, PrecomputeResponse{MetricType: metrics.Weekly, Date: "2026-10-12", Queued: true}, resp)
	require.Len(t, enq.calls, 1)
	assert.True(t, enq.calls[0].Equal(time.Date(2026, 10, 12, 0, 0, 0, 0, ict)))
}

func TestPrecomputeDuplicate(t *testing.T) {
	engine := newEngine(metrics.NewMemoryStore(), &fakeEnqueuer{queued: false})

	code, env := do(t, engine, http.MethodPost, "/api/v1/admin/metrics/precompute", `{"metricType":"daily","date":"2026-10-18"}`)
	require.Equal(t, http.StatusAccepted, code)
	assert.Contains(t, string(env.Data), `"queued":false`)
}

func TestPrecomputeRejections(t *testing.T) {
	tests := []struct {
		name string
		enq  Enqueuer
		body string
		want int
	}{
		{name: "malformed json", enq: &fakeEnqueuer{}, body: `{`, want: http.StatusBadRequest},
		{name: "bad type", enq: &fakeEnqueuer{}, body: `{"metricType":"hourly","date":"2026-10-18"}`, want: http.StatusBadRequest},
		{name: "bad date", enq: &fakeEnqueuer{}, body: `{"metricType":"daily","date":"18/10/2026"}`, want: http.StatusBadRequest},
		{name: "no queue", enq: nil, body: `{"metricType":"daily","date":"2026-10-18"}`, want: http.StatusServiceUnavailable},
		{name: "redis down", enq: &fakeEnqueuer{err: errors.New("dial tcp")}, body: `{"metricType":"daily","date":"2026-10-18"}`, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, newEngine(metrics.NewMemoryStore(), tt.enq), http.MethodPost, "/api/v1/admin/metrics/precompute", tt.body)
			assert.Equal(t, tt.want, code)
			assert.False(t, env.Success)
		})
	}
}
