package pgstore

import (
	"testing"
	"time"

	"fieldservice_backend/internal/records"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildJobWhere(t *testing.T) {
	tech := uuid.New()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	where, args := buildJobWhere(records.JobQuery{
		Window:       &records.Window{From: from, To: to},
		Statuses:     []records.Status{records.StatusWorking, records.StatusPending},
		TechnicianID: &tech,
	})

	assert.Equal(t,
		"j.created_at >= $1 AND j.created_at <= $2 AND j.status = ANY($3) AND "+
			"EXISTS (SELECT 1 FROM job_technicians jt WHERE jt.job_id = j.id AND jt.technician_id = $4)",
		where)
	assert.Equal(t, []any{from, to, []string{"WORKING", "PENDING"}, tech}, args)
}

func TestBuildJobWhereEmpty(t *testing.T) {
	where, args := buildJobWhere(records.JobQuery{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_x%`, likePattern("50% off_x"))
	assert.Equal(t, "%%", likePattern(""))
}
