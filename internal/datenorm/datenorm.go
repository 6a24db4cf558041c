// Package datenorm converts the date strings found in feeds into the
// single YYYY-MM-DD format the store uses. Every component that touches
// a date goes through Normalize; nothing else in the codebase parses dates.
package datenorm

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout is the storage date format.
const Layout = "2006-01-02"

// now is swapped out in tests.
var now = time.Now

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Feed dates show up in several RFC-2822 flavours; day numbers may or may
// not be zero padded and the zone may be numeric or named.
var rfc2822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
}

// Normalize parses an arbitrary date string and returns it as YYYY-MM-DD.
// When nothing can be parsed it falls back to the current UTC date; the
// result is then wrong but well formed, which the rest of the pipeline
// prefers over an error.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now().UTC().Format(Layout)
	}

	if looksRFC2822(raw) {
		for _, layout := range rfc2822Layouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(Layout)
			}
		}
	}

	if t, err := dateparse.ParseAny(raw); err == nil {
		return t.Format(Layout)
	}

	return now().UTC().Format(Layout)
}

// looksRFC2822 reports whether the string has the shape of an RFC-2822
// feed date: a comma plus a three-letter weekday abbreviation.
func looksRFC2822(raw string) bool {
	if !strings.Contains(raw, ",") {
		return false
	}
	for _, day := range weekdays {
		if strings.Contains(raw, day) {
			return true
		}
	}
	return false
}
