package metrics

import (
	"time"

	"fieldservice_backend/internal/records"
)

// DailyAnchor is midnight of the calendar day before firedAt, in loc.
func DailyAnchor(firedAt time.Time, loc *time.Location) time.Time {
	return startOfDay(firedAt, loc).AddDate(0, 0, -1)
}

// WeeklyAnchor is the Monday that starts the full Monday-Sunday week before
// the week containing firedAt, in loc.
func WeeklyAnchor(firedAt time.Time, loc *time.Location) time.Time {
	day := startOfDay(firedAt, loc)
	sinceMonday := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -sinceMonday-7)
}

// Anchor dispatches on t.
func Anchor(t MetricType, firedAt time.Time, loc *time.Location) time.Time {
	if t == Weekly {
		return WeeklyAnchor(firedAt, loc)
	}
	return DailyAnchor(firedAt, loc)
}

// WindowFor is the inclusive createdAt window covered by the snapshot anchored
// at anchor: one calendar day or seven.
func WindowFor(t MetricType, anchor time.Time) records.Window {
	days := 1
	if t == Weekly {
		days = 7
	}
	return records.Window{From: anchor, To: anchor.AddDate(0, 0, days).Add(-time.Nanosecond)}
}

// NormalizeAnchor maps any instant to the anchor of the period containing it.
// Used for on-demand and backfill requests that name a date.
func NormalizeAnchor(t MetricType, date time.Time, loc *time.Location) time.Time {
	day := startOfDay(date, loc)
	if t == Weekly {
		return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	}
	return day
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
