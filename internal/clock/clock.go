// Package clock is the single source of "now" and calendar-date strings for
// the analytics core. Every yyyy-MM-dd / yyyy-MM value in the system must be
// produced here so that day and month boundaries are computed against one
// timezone policy (UTC unless configured otherwise).
package clock

import (
	"fmt"
	"math"
	"time"
)

const (
	// DateLayout is the canonical day format (yyyy-MM-dd).
	DateLayout = "2006-01-02"
	// MonthLayout is the canonical month format (yyyy-MM).
	MonthLayout = "2006-01"
)

// Clock supplies the current time and formats calendar keys in a fixed
// location. Services take a Clock so tests can pin time.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// System is a Clock backed by the wall clock in a fixed location.
type System struct {
	loc *time.Location
}

// NewSystem creates a system clock in the given location.
// A nil location means UTC.
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.UTC
	}
	return &System{loc: loc}
}

// Now returns the current time in the clock's location.
func (s *System) Now() time.Time { return time.Now().In(s.loc) }

// Location returns the clock's fixed location.
func (s *System) Location() *time.Location { return s.loc }

// DateKey formats t as yyyy-MM-dd in t's location.
func DateKey(t time.Time) string { return t.Format(DateLayout) }

// MonthKey formats t as yyyy-MM in t's location.
func MonthKey(t time.Time) string { return t.Format(MonthLayout) }

// ParseDate parses a yyyy-MM-dd string into a midnight time in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// DaysBetween returns the calendar-day difference to - from for two
// yyyy-MM-dd strings. The difference counts midnight crossings, not
// 24-hour periods, so "2024-03-01" to "2024-03-02" is always 1.
// An error from either date means the caller cannot trust the gap.
func DaysBetween(from, to string, loc *time.Location) (int, error) {
	a, err := ParseDate(from, loc)
	if err != nil {
		return 0, err
	}
	b, err := ParseDate(to, loc)
	if err != nil {
		return 0, err
	}
	// Round instead of truncate: with a DST-shifting location two midnights
	// can be 23 or 25 hours apart.
	return int(math.Round(b.Sub(a).Hours() / 24)), nil
}
