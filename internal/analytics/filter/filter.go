// Package filter normalizes raw analytics request parameters into a canonical,
// default-applied filter descriptor. Normalization never fails: unparsable
// input falls back to the default for that field.
package filter

import (
	"math"
	"strconv"
	"strings"
	"time"

	"fieldservice_backend/internal/records"

	"github.com/google/uuid"
)

const (
	// All is the sentinel that disables a categorical filter.
	All = "All"

	DefaultLimit         = 10
	DefaultCustomerLimit = 20
	MaxLimit             = 100
	DefaultLookback      = 30 * 24 * time.Hour
)

// Params are the raw query-string parameters shared by the analytics endpoints.
type Params struct {
	StartDate    string `form:"startDate"`
	EndDate      string `form:"endDate"`
	Status       string `form:"status"`
	Type         string `form:"type"`
	Priority     string `form:"priority"`
	Province     string `form:"province"`
	TeamLeader   string `form:"teamLeader"`
	TechnicianID string `form:"technicianId"`
	Page         string `form:"page"`
	Limit        string `form:"limit"`
	Search       string `form:"search"`
}

// Options carry the request-independent inputs of normalization.
type Options struct {
	Now          time.Time
	Location     *time.Location
	DefaultLimit int
}

// NameMatch is the team-leader predicate: a technician matches when the first
// name contains First or, if Last is set, the last name contains Last.
type NameMatch struct {
	First string
	Last  string
}

// Filter is the canonical filter descriptor. Treat it as immutable.
type Filter struct {
	Window       records.Window
	Statuses     []records.Status
	Types        []string
	Priorities   []string
	Province     string
	TeamLeader   *NameMatch
	TechnicianID *uuid.UUID
	Search       string
	Page         int
	Limit        int
	Now          time.Time
	Location     *time.Location

	defaultLimit int
}

// Normalize applies defaults and parsing rules to p.
func Normalize(p Params, opts Options) Filter {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(loc)
	defaultLimit := opts.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}

	f := Filter{
		Window:       records.Window{From: now.Add(-DefaultLookback), To: now},
		Page:         positiveInt(p.Page, 1),
		Limit:        min(positiveInt(p.Limit, defaultLimit), MaxLimit),
		Now:          now,
		Location:     loc,
		defaultLimit: defaultLimit,
	}

	if start, ok := parseDate(p.StartDate, loc, false); ok {
		f.Window.From = start
	}
	if end, ok := parseDate(p.EndDate, loc, true); ok {
		f.Window.To = end
	}

	for _, s := range splitValues(p.Status) {
		f.Statuses = append(f.Statuses, records.Status(strings.ToUpper(s)))
	}
	f.Types = splitValues(p.Type)
	f.Priorities = splitValues(p.Priority)

	if province := strings.TrimSpace(p.Province); province != "" && province != All {
		f.Province = province
	}
	f.TeamLeader = parseTeamLeader(p.TeamLeader)

	if id, err := uuid.Parse(strings.TrimSpace(p.TechnicianID)); err == nil {
		f.TechnicianID = &id
	}
	f.Search = strings.TrimSpace(p.Search)

	return f
}

// Offset is the number of rows skipped before the current page. It saturates
// at math.MaxInt instead of overflowing.
func (f Filter) Offset() int {
	if f.Limit > 0 && f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// Match converts the job-level predicates into a store query. Province and
// team leader need joined entities and are applied after the join.
func (f Filter) Match() records.JobQuery {
	window := f.Window
	return records.JobQuery{
		Window:       &window,
		Statuses:     f.Statuses,
		Types:        f.Types,
		Priorities:   f.Priorities,
		TechnicianID: f.TechnicianID,
	}
}

// HasCategorical reports whether any predicate beyond the date window is set.
func (f Filter) HasCategorical() bool {
	return len(f.Statuses) > 0 ||
		len(f.Types) > 0 ||
		len(f.Priorities) > 0 ||
		f.Province != "" ||
		f.TeamLeader != nil ||
		f.TechnicianID != nil ||
		f.Search != ""
}

// IsToday reports whether f asks for the unfiltered first page of today:
// the window starts at today's midnight and ends now or later.
func (f Filter) IsToday() bool {
	if f.HasCategorical() || f.Page != 1 || f.Limit != f.defaultLimit {
		return false
	}
	return f.Window.From.Equal(StartOfDay(f.Now, f.Location)) && !f.Window.To.Before(f.Now)
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

var dateTimeLayouts = []string{time.RFC3339Nano, time.RFC3339}

const (
	localDateTime = "2006-01-02T15:04:05"
	dateOnly      = time.DateOnly
)

// parseDate accepts RFC 3339, a zone-less date-time or a bare date. A bare
// end date covers the whole day.
func parseDate(raw string, loc *time.Location, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc), true
		}
	}
	if t, err := time.ParseInLocation(localDateTime, raw, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(dateOnly, raw, loc); err == nil {
		if endOfDay {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), true
		}
		return t, true
	}
	return time.Time{}, false
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitValues(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == All {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" && part != All {
			out = append(out, part)
		}
	}
	return out
}

func parseTeamLeader(raw string) *NameMatch {
	fields := strings.Fields(raw)
	if len(fields) == 0 || (len(fields) == 1 && fields[0] == All) {
		return nil
	}
	return &NameMatch{First: fields[0], Last: strings.Join(fields[1:], " ")}
}

// ForWindow is the unfiltered first page over w as seen at the end of w.
// Snapshot precomputation uses it for fixed past windows.
func ForWindow(w records.Window, loc *time.Location) Filter {
	if loc == nil {
		loc = time.UTC
	}
	return Filter{
		Window:       w,
		Page:         1,
		Limit:        DefaultLimit,
		Now:          w.To.In(loc),
		Location:     loc,
		defaultLimit: DefaultLimit,
	}
}
