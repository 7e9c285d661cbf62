// Package dates normalizes the date strings found in feeds and article pages
// into UTC timestamps and decides whether an article falls inside the
// trailing recency window.
package dates

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// layouts are tried in priority order; the first that parses wins.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02",
	"02/01/2006",
	"January 2, 2006",
	"2006/01/02",
	"Monday, January 2 2006",
	"2 January 2006",
	"02-01-2006",
	"2006.01.02",
}

// Unknown is the wire value harvesters use for a missing publish date.
const Unknown = "Not available"

// Parse converts a raw date string into a UTC timestamp. Dates without an
// explicit offset are assumed UTC. Returns false when the string is empty,
// the "Not available" sentinel, or matches no known form; that is a normal
// outcome, not an error.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Unknown {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	// Last resort before giving up: dateparse handles the long tail of
	// formats the fixed list misses.
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// WithinWindow reports whether t falls inside the trailing window ending at now.
func WithinWindow(t time.Time, windowDays int, now time.Time) bool {
	cutoff := now.AddDate(0, 0, -windowDays)
	return !t.Before(cutoff)
}

// IsRecentAt applies the recency filter to a raw date string. Unparseable or
// absent dates are treated as recent: discarding an article solely because a
// site emits a noisy date string loses more than it saves.
func IsRecentAt(raw string, windowDays int, now time.Time) bool {
	t, ok := Parse(raw)
	if !ok {
		return true
	}
	return WithinWindow(t, windowDays, now)
}

// IsRecent is IsRecentAt against the wall clock.
func IsRecent(raw string, windowDays int) bool {
	return IsRecentAt(raw, windowDays, time.Now().UTC())
}
