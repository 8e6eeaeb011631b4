package handler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldservice_backend/internal/analytics/service"
	"fieldservice_backend/internal/records"
	"fieldservice_backend/internal/records/memstore"
	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ict        = time.FixedZone("ICT", 7*3600)
	now        = time.Date(2026, 10, 19, 14, 30, 0, 0, ict)
	customerID = uuid.MustParse("11111111-0000-0000-0000-000000000001")
	locationID = uuid.MustParse("22222222-0000-0000-0000-000000000001")
	jobID      = uuid.MustParse("44444444-0000-0000-0000-000000000001")
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Source  string          `json:"source"`
}

type brokenStore struct{ *memstore.Store }

func (brokenStore) FindJobs(context.Context, records.JobQuery) ([]records.Job, error) {
	return nil, errors.New("connection reset")
}

func seed() *memstore.Store {
	s := memstore.New()
	s.PutCustomer(records.Customer{ID: customerID, Name: "Somchai Jaidee", Phone: "+66812345678"})
	s.PutLocation(records.JobLocation{ID: locationID, Province: "Bangkok", Coordinates: []float64{100.5, 13.7}, CustomerID: &customerID})
	s.PutJob(records.Job{ID: jobID, JobNumber: "JOB-1", Status: records.StatusWorking, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour), LocationID: &locationID})
	return s
}

func newRouter(t *testing.T, store records.Reader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.New(store, nil, &config.Config{ReportLocation: ict}, clock.NewFake(now), logger.Nop())
	h := New(svc)

	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1/analytics"))
	h.RegisterCustomerRoutes(engine.Group("/api/v1/customers"))
	return engine
}

func get(t *testing.T, engine *gin.Engine, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestOverviewEndpoint(t *testing.T) {
	engine := newRouter(t, seed())

	rec, env := get(t, engine, "/api/v1/analytics/overview?status=All&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "computed", env.Source)

	var data struct {
		Jobs       []map[string]any `json:"jobs"`
		Pagination map[string]int  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Jobs, 1)
	assert.Equal(t, "Somchai Jaidee", data.Jobs[0]["customerContact"].(map[string]any)["name"])
	assert.Equal(t, 5, data.Pagination["limit"])
}

func TestStoreFailureKeepsPayloadShape(t *testing.T) {
	engine := newRouter(t, brokenStore{seed()})

	rec, env := get(t, engine, "/api/v1/analytics/overview")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "failed to query records", env.Error)
	assert.JSONEq(t, `{
		"jobs": [],
		"pagination": {"page": 1, "limit": 10, "total": 0, "pages": 0},
		"metrics": {"totalJobs": 0, "openJobs": 0, "closedJobs": 0, "todayJobs": 0, "todayClosed": 0},
		"distributions": {"status": [], "priority": [], "province": [], "district": []}
	}`, string(env.Data))

	rec, env = get(t, engine, "/api/v1/analytics/map")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"points": [], "total": 0}`, string(env.Data))
}

func TestReadEndpoints(t *testing.T) {
	engine := newRouter(t, seed())

	for _, path := range []string{
		"/api/v1/analytics/map",
		"/api/v1/analytics/geographic",
		"/api/v1/analytics/technicians/performance",
		"/api/v1/analytics/technicians/jobs?technicianId=not-a-uuid",
		"/api/v1/customers?search=somchai",
		"/api/v1/customers/" + customerID.String() + "/jobs",
		"/api/v1/customers/" + customerID.String() + "/jobs/" + jobID.String(),
	} {
		t.Run(path, func(t *testing.T) {
			rec, env := get(t, engine, path)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, env.Success)
			assert.NotEmpty(t, env.Data)
		})
	}
}

func TestCustomerNotFound(t *testing.T) {
	engine := newRouter(t, seed())

	for _, path := range []string{
		"/api/v1/customers/not-a-uuid/jobs",
		"/api/v1/customers/" + uuid.NewString() + "/jobs",
		"/api/v1/customers/" + customerID.String() + "/jobs/" + uuid.NewString(),
		"/api/v1/customers/" + customerID.String() + "/jobs/bogus",
	} {
		rec, env := get(t, engine, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.False(t, env.Success)
	}
}

func TestExportTechnicianPerformance(t *testing.T) {
	engine := newRouter(t, seed())

	rec, _ := get(t, engine, "/api/v1/analytics/technicians/performance/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "technician-performance-2026-10-19.xlsx")
	assert.Equal(t, "PK", string(rec.Body.Bytes()[:2]), "xlsx is a zip container")
}

func TestExportJobsCSV(t *testing.T) {
	engine := newRouter(t, seed())

	rec, _ := get(t, engine, "/api/v1/analytics/overview/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "jobs-2026-10-19.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, jobCSVHeaders, rows[0])

	row := rows[1]
	assert.Equal(t, "JOB-1", row[0])
	assert.Equal(t, "2026-10-19T13:30:00+07:00", row[4])
	assert.Empty(t, row[5])
	assert.Equal(t, "Somchai Jaidee", row[6])
	assert.Equal(t, "Bangkok", row[8])
	assert.Equal(t, "0", row[11])
}

func TestExportJobsCSVStoreFailure(t *testing.T) {
	engine := newRouter(t, brokenStore{seed()})

	rec, env := get(t, engine, "/api/v1/analytics/overview/export")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "failed to query records", env.Error)
}
