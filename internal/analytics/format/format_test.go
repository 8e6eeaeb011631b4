package format

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/records"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestTechnicianNames(t *testing.T) {
	tests := []struct {
		name  string
		techs []records.TechnicianProfile
		want  string
	}{
		{"none", nil, NotAvailable},
		{"blank names", []records.TechnicianProfile{{FirstName: " ", LastName: ""}}, NotAvailable},
		{"one", []records.TechnicianProfile{{FirstName: "Niran", LastName: "Wongsa"}}, "Niran Wongsa"},
		{"first only", []records.TechnicianProfile{{FirstName: "Pim"}}, "Pim"},
		{"skips blank", []records.TechnicianProfile{{FirstName: "Niran"}, {}, {LastName: "Chaiyo"}}, "Niran, Chaiyo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TechnicianNames(tt.techs))
		})
	}
}

func TestCustomerContact(t *testing.T) {
	job := records.Job{ContactName: str("Walk-in"), ContactPhone: str("0899999999")}

	t.Run("customer wins", func(t *testing.T) {
		c := CustomerContact(&records.Customer{Name: "Somchai", Phone: "0812345678", Email: "s@example.com"}, job)
		assert.Equal(t, "Somchai", c.Name)
		assert.Equal(t, "0812345678", c.Phone)
		assert.Equal(t, "s@example.com", c.Email)
	})

	t.Run("job fallback", func(t *testing.T) {
		c := CustomerContact(nil, job)
		assert.Equal(t, "Walk-in", c.Name)
		assert.Equal(t, "0899999999", c.Phone)
		assert.Equal(t, "", c.Email)
	})

	t.Run("nothing known", func(t *testing.T) {
		c := CustomerContact(nil, records.Job{})
		assert.Equal(t, NotAvailable, c.Name)
		assert.Equal(t, "", c.Phone)
		assert.Equal(t, "", c.Email)
	})
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates([]float64{100.5, 13.7}))
	assert.True(t, ValidCoordinates([]float64{0, 13.7}))
	assert.False(t, ValidCoordinates([]float64{0, 0}))
	assert.False(t, ValidCoordinates([]float64{100.5}))
	assert.False(t, ValidCoordinates([]float64{100.5, 13.7, 1}))
	assert.False(t, ValidCoordinates(nil))
	assert.False(t, ValidCoordinates([]float64{math.NaN(), 13.7}))
	assert.False(t, ValidCoordinates([]float64{math.Inf(1), 13.7}))
}

func TestClosedAtInvariant(t *testing.T) {
	updated := time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC)
	for _, status := range records.AllStatuses {
		closedAt := ClosedAt(records.Job{Status: status, UpdatedAt: updated})
		if status.IsClosed() {
			require.NotNil(t, closedAt, status)
			assert.True(t, closedAt.Equal(updated))
		} else {
			assert.Nil(t, closedAt, status)
		}
	}
}

func TestJobRowBareWorkingJob(t *testing.T) {
	row := JobRow(query.Row{Job: records.Job{ID: uuid.New(), Status: records.StatusWorking}})

	assert.Equal(t, NotAvailable, row.CustomerContact.Name)
	assert.Equal(t, NotAvailable, row.TechnicianNames)
	assert.Equal(t, 0, row.TechnicianCount)
	assert.Nil(t, row.ClosedAt)
	assert.Nil(t, row.Location)
}

func TestJobRowLocationWithUnsetCoordinates(t *testing.T) {
	loc := &records.JobLocation{ID: uuid.New(), Province: "Bangkok", Coordinates: []float64{0, 0}}
	row := JobRow(query.Row{Job: records.Job{Status: records.StatusPending}, Location: loc})

	require.NotNil(t, row.Location)
	assert.Equal(t, "Bangkok", row.Location.Province)
	assert.Nil(t, row.Location.Coordinates)

	raw, err := json.Marshal(row.Location)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"coordinates":null`)
}

func TestTimeline(t *testing.T) {
	created := time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC)
	history := []records.StatusEvent{
		{Status: records.StatusCompleted, ChangedAt: created.Add(29 * time.Hour)},
		{Status: records.StatusWorking, ChangedAt: created.Add(2 * time.Hour), Note: "on site"},
	}

	closed := records.Job{Status: records.StatusCompleted, CreatedAt: created, UpdatedAt: created.Add(29 * time.Hour)}
	events := Timeline(closed, history)
	require.Len(t, events, 4)
	assert.Equal(t, StatusCreated, events[0].Status)
	assert.True(t, events[0].Synthetic)
	assert.True(t, events[0].At.Equal(created))
	assert.Equal(t, "WORKING", events[1].Status)
	assert.Equal(t, "on site", events[1].Note)
	assert.Equal(t, "COMPLETED", events[2].Status)
	assert.False(t, events[2].Synthetic)
	assert.Equal(t, "COMPLETED", events[3].Status)
	assert.True(t, events[3].Synthetic)

	open := records.Job{Status: records.StatusWorking, CreatedAt: created, UpdatedAt: created}
	events = Timeline(open, history[1:])
	require.Len(t, events, 2)
	assert.Equal(t, "WORKING", events[1].Status)

	assert.Len(t, Timeline(open, nil), 1)
}

func TestReviewSanitizesComment(t *testing.T) {
	r := Review(&records.CustomerReview{Comment: "<b>Great</b>\n\n  service <script>x</script>"})
	require.NotNil(t, r)
	assert.Equal(t, "Great service x", r.Comment)
	assert.Nil(t, Review(nil))
}

func TestPagination(t *testing.T) {
	p := Pagination(2, 10, 21)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 21, p.Total)
}
