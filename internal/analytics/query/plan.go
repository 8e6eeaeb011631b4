// Package query implements the join-aggregate executor. Every analytics
// operation is described by a Plan (match, joins, unwind, predicates, sort,
// page) and run by the one generic Executor.
package query

import (
	"fieldservice_backend/internal/records"
)

// Join selects which related entities are attached to each job row.
type Join uint8

const (
	JoinLocation Join = 1 << iota
	// JoinCustomer attaches the customer owning the job's location. It implies
	// JoinLocation.
	JoinCustomer
	JoinTechnicians
	JoinReview
)

// Has reports whether every bit of other is set in j.
func (j Join) Has(other Join) bool { return j&other == other }

// TechnicianSource picks which technician reference list is resolved.
type TechnicianSource int

const (
	// FromJob resolves the technicians assigned to the job.
	FromJob TechnicianSource = iota
	// FromReview resolves the technicians named on the job's review.
	FromReview
)

// Unwind controls row expansion over the technician list.
type Unwind int

const (
	UnwindNone Unwind = iota
	// UnwindTechnicians emits one row per technician and drops rows without any.
	UnwindTechnicians
	// UnwindTechniciansPreserve is UnwindTechnicians but keeps technician-less
	// rows with a nil Technician.
	UnwindTechniciansPreserve
)

// Row is one joined job. Related entities are nil when absent.
type Row struct {
	Job         records.Job
	Location    *records.JobLocation
	Customer    *records.Customer
	Technicians []records.TechnicianProfile
	// Technician is set on unwound rows.
	Technician *records.TechnicianProfile
	Review     *records.CustomerReview
}

// Predicate filters joined rows after the match stage.
type Predicate func(Row) bool

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Plan describes one named join-aggregate operation.
type Plan struct {
	Name             string
	Match            records.JobQuery
	Joins            Join
	TechnicianSource TechnicianSource
	Unwind           Unwind
	Where            []Predicate
	// Less orders rows; the sort is stable so ties keep store order.
	Less func(a, b Row) bool
	Page *Page
}

// Result holds the (possibly paged) rows and the size of the full filtered set.
type Result struct {
	Rows  []Row
	Total int
}

func (p Plan) needsLocations() bool {
	return p.Joins&(JoinLocation|JoinCustomer) != 0
}

func (p Plan) needsReviews() bool {
	return p.Joins.Has(JoinReview) || (p.Joins.Has(JoinTechnicians) && p.TechnicianSource == FromReview)
}
