// Package timeutil parses, formats and compares task due times.
//
// Due times are local wall-clock values with minute precision and no zone
// information, written as "YYYY-MM-DD HH:MM".
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Layout is the on-disk and user-facing form of a due time.
	Layout = "2006-01-02 15:04"
	// DateLayout is the date half of Layout.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24-hour time half of Layout.
	ClockLayout = "15:04"
)

// ErrInvalidTime is returned by ParseStrict for input that is not in Layout.
var ErrInvalidTime = errors.New("time must look like YYYY-MM-DD HH:MM (24-hour)")

// Parse reads a due time in Layout. Empty or malformed input reports false;
// a task without a parsable due simply has no deadline.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseStrict is Parse for places where a due time is required.
func ParseStrict(s string) (time.Time, error) {
	t, ok := Parse(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, strings.TrimSpace(s))
	}
	return t, nil
}

// Format writes t in Layout. The zero time formats as "".
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(Layout)
}

// Combine joins separate date and clock fields into a single due string.
func Combine(date, clock string) string {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" && clock == "" {
		return ""
	}
	return date + " " + clock
}

// Split is the inverse of Combine for a value in Layout. Values that do not
// parse are returned whole as the date part so they can be corrected.
func Split(s string) (date, clock string) {
	t, ok := Parse(s)
	if !ok {
		return strings.TrimSpace(s), ""
	}
	return t.Format(DateLayout), t.Format(ClockLayout)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// WithinDays reports whether t's calendar date lies in [day(now), day(now)+n],
// both ends inclusive.
func WithinDays(now, t time.Time, n int) bool {
	start := StartOfDay(now)
	end := start.AddDate(0, 0, n)
	d := StartOfDay(t.In(now.Location()))
	return !d.Before(start) && !d.After(end)
}

// Relative describes due relative to now for list display.
func Relative(now, due time.Time) string {
	if due.IsZero() {
		return "no deadline"
	}
	diff := due.Sub(now)
	switch {
	case diff < 0 && diff > -time.Minute:
		return "now"
	case diff < 0:
		return shortDuration(-diff) + " ago"
	case SameDay(now, due):
		if diff < time.Minute {
			return "now"
		}
		return "in " + shortDuration(diff)
	case SameDay(now.AddDate(0, 0, 1), due):
		return "tomorrow " + due.Format(ClockLayout)
	case WithinDays(now, due, 6):
		return due.Format("Mon 15:04")
	default:
		return due.Format("Jan 2 15:04")
	}
}

func shortDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		h := int(d / time.Hour)
		m := int((d % time.Hour) / time.Minute)
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}
