package memstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"fieldservice_backend/internal/records"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	customerOne = uuid.MustParse("11111111-0000-0000-0000-000000000001")
	headOffice  = uuid.MustParse("22222222-0000-0000-0000-000000000001")
	warehouse   = uuid.MustParse("22222222-0000-0000-0000-000000000002")
	niran       = uuid.MustParse("33333333-0000-0000-0000-000000000001")
	jobOne      = uuid.MustParse("44444444-0000-0000-0000-000000000001")
	jobTwo      = uuid.MustParse("44444444-0000-0000-0000-000000000002")
	jobThree    = uuid.MustParse("44444444-0000-0000-0000-000000000003")
)

func loadSeed(t *testing.T) *Store {
	t.Helper()
	s, err := LoadFile("testdata/seed.yaml")
	require.NoError(t, err)
	return s
}

func jobIDs(jobs []records.Job) []uuid.UUID {
	out := make([]uuid.UUID, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func TestFindJobsOrdersNewestFirst(t *testing.T) {
	s := loadSeed(t)

	jobs, err := s.FindJobs(context.Background(), records.JobQuery{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{jobTwo, jobThree, jobOne}, jobIDs(jobs))
}

func TestFindJobsMatch(t *testing.T) {
	s := loadSeed(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query records.JobQuery
		want  []uuid.UUID
	}{
		{
			name: "window is inclusive",
			query: records.JobQuery{Window: &records.Window{
				From: time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC),
				To:   time.Date(2026, 10, 3, 3, 0, 0, 0, time.UTC),
			}},
			want: []uuid.UUID{jobThree, jobOne},
		},
		{
			name:  "status",
			query: records.JobQuery{Statuses: []records.Status{records.StatusWorking}},
			want:  []uuid.UUID{jobTwo},
		},
		{
			name:  "type and priority",
			query: records.JobQuery{Types: []string{"REPAIR"}, Priorities: []string{"HIGH"}},
			want:  []uuid.UUID{jobThree},
		},
		{
			name:  "technician",
			query: records.JobQuery{TechnicianID: &niran},
			want:  []uuid.UUID{jobOne},
		},
		{
			name:  "locations",
			query: records.JobQuery{LocationIDs: []uuid.UUID{headOffice, warehouse}},
			want:  []uuid.UUID{jobThree, jobOne},
		},
		{
			name:  "empty location set matches nothing",
			query: records.JobQuery{LocationIDs: []uuid.UUID{}},
			want:  []uuid.UUID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := s.FindJobs(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, jobIDs(jobs))
		})
	}
}

func TestSeedDefaults(t *testing.T) {
	s := loadSeed(t)
	ctx := context.Background()

	locs, err := s.LocationsByID(ctx, []uuid.UUID{warehouse, uuid.New()})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, []float64{0, 0}, locs[warehouse].Coordinates)

	jobs, err := s.FindJobs(ctx, records.JobQuery{JobID: &jobTwo})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobs[0].CreatedAt, jobs[0].UpdatedAt)
	assert.Nil(t, jobs[0].LocationID)
	assert.Empty(t, jobs[0].TechnicianIDs)
}

func TestLocationsByCustomer(t *testing.T) {
	s := loadSeed(t)

	locs, err := s.LocationsByCustomer(context.Background(), customerOne)
	require.NoError(t, err)
	assert.Len(t, locs, 2)

	none, err := s.LocationsByCustomer(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchCustomers(t *testing.T) {
	s := loadSeed(t)
	ctx := context.Background()

	found, total, err := s.SearchCustomers(ctx, records.CustomerQuery{Search: "SOMCHAI", Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, customerOne, found[0].ID)

	found, total, err = s.SearchCustomers(ctx, records.CustomerQuery{Search: "0812345678", PhoneForms: []string{"+66812345678"}, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, customerOne, found[0].ID)

	page, total, err := s.SearchCustomers(ctx, records.CustomerQuery{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Somchai Jaidee", page[0].Name)

	past, total, err := s.SearchCustomers(ctx, records.CustomerQuery{Offset: 10, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, past)
}

func TestStatusHistorySorted(t *testing.T) {
	s := loadSeed(t)

	events, err := s.StatusHistory(context.Background(), jobOne)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, records.StatusWorking, events[0].Status)
	assert.Equal(t, records.StatusCompleted, events[1].Status)
}

func TestLoadRejectsUnknownStatus(t *testing.T) {
	_, err := Load(strings.NewReader(`
jobs:
  - id: 44444444-0000-0000-0000-000000000009
    jobNumber: JOB-9
    status: DONE
    createdAt: 2026-10-01T00:00:00Z
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindJobs(ctx, records.JobQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}
