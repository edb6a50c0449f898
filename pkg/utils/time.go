package utils

import "time"

// ISODateLayout is the wire format for the chronology-bearing lead date
// fields (dateAdded and the three call dates).
const ISODateLayout = "2006-01-02"

// Now returns the current time in UTC timezone
func Now() time.Time {
	return time.Now().UTC()
}

// ParseISODate parses a YYYY-MM-DD string into a UTC time. The boolean is
// false for empty or malformed input; callers treat that as "date absent"
// rather than an error.
func ParseISODate(s string) (time.Time, bool) {
	if len(s) != len(ISODateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// IsValidISODate reports whether s is a parseable YYYY-MM-DD date.
func IsValidISODate(s string) bool {
	_, ok := ParseISODate(s)
	return ok
}

// FormatISODate formats a time.Time as YYYY-MM-DD in UTC.
func FormatISODate(t time.Time) string {
	return t.UTC().Format(ISODateLayout)
}

// FormatISO8601 formats a time.Time to ISO8601 format in UTC
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DaysBetween returns the whole-day difference to - from.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
