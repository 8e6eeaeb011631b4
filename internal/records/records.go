// Package records defines the field-service entities read by the analytics
// engine and the Reader contract every record store implements.
package records

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusWaitingJob Status = "WAITINGJOB"
	StatusWorking    Status = "WORKING"
	StatusPending    Status = "PENDING"
	StatusCompleted  Status = "COMPLETED"
	StatusClosed     Status = "CLOSED"
	StatusCancelled  Status = "CANCELLED"
	StatusReview     Status = "REVIEW"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusWaitingJob,
	StatusWorking,
	StatusPending,
	StatusCompleted,
	StatusClosed,
	StatusCancelled,
	StatusReview,
}

// ClosureStatuses are the terminal statuses counted as closed in reports.
var ClosureStatuses = []Status{StatusCompleted, StatusClosed, StatusCancelled, StatusReview}

// IsClosed reports whether s belongs to the closure set.
func (s Status) IsClosed() bool {
	switch s {
	case StatusCompleted, StatusClosed, StatusCancelled, StatusReview:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Job is the aggregation root. Contact fields are the raw values captured on
// the job itself and only used when no customer is reachable via the location.
type Job struct {
	ID            uuid.UUID
	JobNumber     string
	Status        Status
	Type          string
	Priority      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	AppointmentAt *time.Time
	ContactName   *string
	ContactPhone  *string
	ContactEmail  *string
	LocationID    *uuid.UUID
	TechnicianIDs []uuid.UUID
}

// JobLocation is a service address. Coordinates are [longitude, latitude];
// [0,0] is the unset default.
type JobLocation struct {
	ID          uuid.UUID
	Name        string
	Address     string
	Province    string
	District    string
	SubDistrict string
	PostalCode  string
	Coordinates []float64
	CustomerID  *uuid.UUID
}

type Customer struct {
	ID    uuid.UUID
	Name  string
	Phone string
	Email string
}

type TechnicianProfile struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Code      string
	Position  string
}

// CustomerReview holds the ratings left for a job. Ratings are nil when the
// customer skipped the question.
type CustomerReview struct {
	ID            uuid.UUID
	JobID         uuid.UUID
	TechnicianIDs []uuid.UUID
	Time          *float64
	Manner        *float64
	Knowledge     *float64
	Overall       *float64
	Recommend     *float64
	Comment       string
	CreatedAt     time.Time
}

// StatusEvent is one persisted status transition of a job.
type StatusEvent struct {
	JobID     uuid.UUID
	Status    Status
	ChangedAt time.Time
	Note      string
}
