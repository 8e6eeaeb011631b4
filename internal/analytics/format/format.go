// Package format flattens joined rows into the stable response shapes. Every
// endpoint that lists jobs goes through JobRow so names and contact fallback
// are identical everywhere.
package format

import (
	"math"
	"sort"
	"strings"
	"time"

	"fieldservice_backend/internal/analytics/query"
	"fieldservice_backend/internal/analytics/transport"
	"fieldservice_backend/internal/records"
	"fieldservice_backend/platform/sanitize"
)

// NotAvailable is shown for names that could not be resolved.
const NotAvailable = "N/A"

// StatusCreated labels the synthetic first timeline entry.
const StatusCreated = "CREATED"

// TechnicianName is the trimmed "first last" of t, possibly empty.
func TechnicianName(t records.TechnicianProfile) string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// TechnicianNames joins the non-empty names with ", ", or NotAvailable.
func TechnicianNames(techs []records.TechnicianProfile) string {
	names := make([]string, 0, len(techs))
	for _, t := range techs {
		if name := TechnicianName(t); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return NotAvailable
	}
	return strings.Join(names, ", ")
}

func TechnicianRef(t records.TechnicianProfile) transport.TechnicianRef {
	name := TechnicianName(t)
	if name == "" {
		name = NotAvailable
	}
	return transport.TechnicianRef{ID: t.ID, Name: name, Code: t.Code, Position: t.Position}
}

// CustomerContact prefers the customer reached through the location and falls
// back field by field to the contact captured on the job.
func CustomerContact(customer *records.Customer, job records.Job) transport.Contact {
	var name, phone, email string
	if customer != nil {
		name, phone, email = customer.Name, customer.Phone, customer.Email
	}
	name = firstNonEmpty(name, deref(job.ContactName))
	phone = firstNonEmpty(phone, deref(job.ContactPhone))
	email = firstNonEmpty(email, deref(job.ContactEmail))
	if name == "" {
		name = NotAvailable
	}
	return transport.Contact{Name: name, Phone: phone, Email: email}
}

// ValidCoordinates reports whether coords is a finite, non-default
// [longitude, latitude] pair.
func ValidCoordinates(coords []float64) bool {
	if len(coords) != 2 {
		return false
	}
	for _, c := range coords {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return coords[0] != 0 || coords[1] != 0
}

// Coordinates returns loc's pair when valid.
func Coordinates(loc *records.JobLocation) (*[2]float64, bool) {
	if loc == nil || !ValidCoordinates(loc.Coordinates) {
		return nil, false
	}
	return &[2]float64{loc.Coordinates[0], loc.Coordinates[1]}, true
}

func Location(loc *records.JobLocation) *transport.Location {
	if loc == nil {
		return nil
	}
	coords, _ := Coordinates(loc)
	return &transport.Location{
		ID:          loc.ID,
		Name:        loc.Name,
		Address:     loc.Address,
		Province:    loc.Province,
		District:    loc.District,
		SubDistrict: loc.SubDistrict,
		PostalCode:  loc.PostalCode,
		Coordinates: coords,
	}
}

// ClosedAt is the job's updatedAt when it is in the closure set, else nil.
func ClosedAt(job records.Job) *time.Time {
	if !job.Status.IsClosed() {
		return nil
	}
	t := job.UpdatedAt
	return &t
}

// JobRow flattens a joined row.
func JobRow(r query.Row) transport.JobRow {
	return transport.JobRow{
		ID:              r.Job.ID,
		JobNumber:       r.Job.JobNumber,
		Status:          string(r.Job.Status),
		Type:            r.Job.Type,
		Priority:        r.Job.Priority,
		CreatedAt:       r.Job.CreatedAt,
		UpdatedAt:       r.Job.UpdatedAt,
		AppointmentAt:   r.Job.AppointmentAt,
		ClosedAt:        ClosedAt(r.Job),
		CustomerContact: CustomerContact(r.Customer, r.Job),
		Location:        Location(r.Location),
		TechnicianNames: TechnicianNames(r.Technicians),
		TechnicianCount: len(r.Technicians),
	}
}

func JobRows(rows []query.Row) []transport.JobRow {
	out := make([]transport.JobRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, JobRow(r))
	}
	return out
}

func Review(r *records.CustomerReview) *transport.Review {
	if r == nil {
		return nil
	}
	return &transport.Review{
		ID:        r.ID,
		Time:      r.Time,
		Manner:    r.Manner,
		Knowledge: r.Knowledge,
		Overall:   r.Overall,
		Recommend: r.Recommend,
		Comment:   sanitize.Comment(r.Comment),
		CreatedAt: r.CreatedAt,
	}
}

// Timeline is a synthetic CREATED entry, the persisted history in ascending
// time, then a synthetic entry for the current status if the job is closed.
func Timeline(job records.Job, history []records.StatusEvent) []transport.TimelineEvent {
	events := make([]records.StatusEvent, len(history))
	copy(events, history)
	sort.SliceStable(events, func(i, j int) bool { return events[i].ChangedAt.Before(events[j].ChangedAt) })

	out := make([]transport.TimelineEvent, 0, len(events)+2)
	out = append(out, transport.TimelineEvent{Status: StatusCreated, At: job.CreatedAt, Synthetic: true})
	for _, ev := range events {
		out = append(out, transport.TimelineEvent{Status: string(ev.Status), At: ev.ChangedAt, Note: ev.Note})
	}
	if job.Status.IsClosed() {
		out = append(out, transport.TimelineEvent{Status: string(job.Status), At: job.UpdatedAt, Synthetic: true})
	}
	return out
}

func Counts(counts []query.Count) []transport.Count {
	out := make([]transport.Count, 0, len(counts))
	for _, c := range counts {
		out = append(out, transport.Count{Key: c.Key, Count: c.Count})
	}
	return out
}

func Pagination(page, limit, total int) transport.Pagination {
	return transport.Pagination{Page: page, Limit: limit, Total: total, Pages: query.Pages(total, limit)}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
