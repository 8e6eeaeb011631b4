package service

import (
	"context"
	"testing"
	"time"

	"fieldservice_backend/internal/records"
	"fieldservice_backend/internal/records/memstore"
	"fieldservice_backend/platform/clock"
	"fieldservice_backend/platform/config"
	"fieldservice_backend/platform/logger"

	"github.com/google/uuid"
)

var (
	ict = time.FixedZone("ICT", 7*3600)
	now = time.Date(2026, 10, 19, 14, 30, 0, 0, ict)

	c1 = uuid.MustParse("11111111-0000-0000-0000-000000000001")
	c2 = uuid.MustParse("11111111-0000-0000-0000-000000000002")
	l1 = uuid.MustParse("22222222-0000-0000-0000-000000000001")
	l2 = uuid.MustParse("22222222-0000-0000-0000-000000000002")
	l3 = uuid.MustParse("22222222-0000-0000-0000-000000000003")
	t1 = uuid.MustParse("33333333-0000-0000-0000-000000000001")
	t2 = uuid.MustParse("33333333-0000-0000-0000-000000000002")
	j1 = uuid.MustParse("44444444-0000-0000-0000-000000000001")
	j2 = uuid.MustParse("44444444-0000-0000-0000-000000000002")
	j3 = uuid.MustParse("44444444-0000-0000-0000-000000000003")
	j4 = uuid.MustParse("44444444-0000-0000-0000-000000000004")
	j5 = uuid.MustParse("44444444-0000-0000-0000-000000000005")
)

func at(day, hour int) time.Time {
	return time.Date(2026, 10, day, hour, 0, 0, 0, ict)
}

func rating(v float64) *float64 { return &v }

// seedStore builds the shared fixture:
//
//	j1 COMPLETED today at l1 (Bangkok) by t1+t2, reviewed overall 4
//	j2 WORKING yesterday, nothing attached
//	j3 PENDING at l2 (Chiang Mai, coordinates unset) by t2, reviewed 4.5
//	j4 CLOSED at l3 (Bangkok, customer c2) by t1, reviewed 5
//	j5 COMPLETED in August at l1 by t1, reviewed 3
func seedStore() *memstore.Store {
	s := memstore.New()

	s.PutCustomer(records.Customer{ID: c1, Name: "Somchai Jaidee", Phone: "+66812345678", Email: "somchai@example.com"})
	s.PutCustomer(records.Customer{ID: c2, Name: "Anong Srisuk", Phone: "021234567", Email: "anong@example.com"})

	s.PutLocation(records.JobLocation{ID: l1, Name: "Head office", Province: "Bangkok", District: "Khlong Toei", Coordinates: []float64{100.56, 13.73}, CustomerID: &c1})
	s.PutLocation(records.JobLocation{ID: l2, Name: "Warehouse", Province: "Chiang Mai", District: "Mueang", Coordinates: []float64{0, 0}, CustomerID: &c1})
	s.PutLocation(records.JobLocation{ID: l3, Name: "Shop", Province: "Bangkok", District: "Bang Rak", Coordinates: []float64{100.52, 13.72}, CustomerID: &c2})

	s.PutTechnician(records.TechnicianProfile{ID: t1, FirstName: "Niran", LastName: "Wongsa", Code: "T-01", Position: "Team Leader"})
	s.PutTechnician(records.TechnicianProfile{ID: t2, FirstName: "Pim", LastName: "Chaiyo", Code: "T-02", Position: "Technician"})

	s.PutJob(records.Job{ID: j1, JobNumber: "JOB-1", Status: records.StatusCompleted, Type: "INSTALL", Priority: "HIGH",
		CreatedAt: at(19, 9), UpdatedAt: at(19, 12), LocationID: &l1, TechnicianIDs: []uuid.UUID{t1, t2}})
	s.PutJob(records.Job{ID: j2, JobNumber: "JOB-2", Status: records.StatusWorking, Type: "REPAIR",
		CreatedAt: at(18, 10), UpdatedAt: at(18, 10)})
	s.PutJob(records.Job{ID: j3, JobNumber: "JOB-3", Status: records.StatusPending, Type: "REPAIR", Priority: "LOW",
		CreatedAt: at(10, 9), UpdatedAt: at(11, 9), LocationID: &l2, TechnicianIDs: []uuid.UUID{t2}})
	s.PutJob(records.Job{ID: j4, JobNumber: "JOB-4", Status: records.StatusClosed, Type: "INSTALL", Priority: "HIGH",
		CreatedAt: at(5, 9), UpdatedAt: at(6, 9), LocationID: &l3, TechnicianIDs: []uuid.UUID{t1}})
	s.PutJob(records.Job{ID: j5, JobNumber: "JOB-5", Status: records.StatusCompleted, Type: "INSTALL", Priority: "LOW",
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, ict), UpdatedAt: time.Date(2026, 8, 2, 9, 0, 0, 0, ict),
		LocationID: &l1, TechnicianIDs: []uuid.UUID{t1}})

	s.PutReview(records.CustomerReview{ID: uuid.New(), JobID: j1, TechnicianIDs: []uuid.UUID{t1},
		Time: rating(5), Manner: rating(4), Knowledge: rating(4), Overall: rating(4), Recommend: rating(5), CreatedAt: at(19, 13)})
	s.PutReview(records.CustomerReview{ID: uuid.New(), JobID: j3, TechnicianIDs: []uuid.UUID{t2},
		Overall: rating(4.5), Comment: "<i>quick</i>", CreatedAt: at(11, 10)})
	s.PutReview(records.CustomerReview{ID: uuid.New(), JobID: j4, TechnicianIDs: []uuid.UUID{t1},
		Time: rating(4), Overall: rating(5), CreatedAt: at(6, 10)})
	s.PutReview(records.CustomerReview{ID: uuid.New(), JobID: j5, TechnicianIDs: []uuid.UUID{t1},
		Time: rating(3), Overall: rating(3), CreatedAt: time.Date(2026, 8, 2, 10, 0, 0, 0, ict)})

	s.AppendHistory(records.StatusEvent{JobID: j1, Status: records.StatusCompleted, ChangedAt: at(19, 12)})
	s.AppendHistory(records.StatusEvent{JobID: j1, Status: records.StatusWorking, ChangedAt: at(19, 10)})

	return s
}

type testOption func(*config.Config, *SnapshotReader)

func withGeoStatus() testOption {
	return func(c *config.Config, _ *SnapshotReader) { c.GeoStatusBreakdown = true }
}

func withSnapshots(r SnapshotReader) testOption {
	return func(_ *config.Config, dst *SnapshotReader) { *dst = r }
}

func newTestService(t *testing.T, store records.Reader, opts ...testOption) *Service {
	t.Helper()
	cfg := &config.Config{ReportLocation: ict, PhoneRegion: "TH"}
	var snapshots SnapshotReader
	for _, opt := range opts {
		opt(cfg, &snapshots)
	}
	return New(store, snapshots, cfg, clock.NewFake(now), logger.Nop())
}

type failingStore struct {
	*memstore.Store
	err error
}

func (f failingStore) FindJobs(context.Context, records.JobQuery) ([]records.Job, error) {
	return nil, f.err
}

func (f failingStore) SearchCustomers(context.Context, records.CustomerQuery) ([]records.Customer, int, error) {
	return nil, 0, f.err
}
