package analytics

import (
	"time"
)

// Granularity is the bucket width of a time series.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// WindowKind selects a reporting window. The first four resolve to daily
// buckets, the rest to monthly buckets.
type WindowKind string

const (
	WindowThisWeek   WindowKind = "this-week"
	WindowThisMonth  WindowKind = "this-month"
	WindowThisYear   WindowKind = "this-year"
	WindowCustomDays WindowKind = "custom-days"

	WindowYearToDate   WindowKind = "year-to-date"
	WindowLast12Months WindowKind = "last-12-months"
	WindowLast24Months WindowKind = "last-24-months"
	WindowCustomMonths WindowKind = "custom-months"
)

// Span caps for custom windows. Oversized ranges are trimmed from the
// start so the requested end is preserved.
const (
	maxCustomDays   = 370
	maxCustomMonths = 36
)

// Window describes a reporting window. Start and End are only consulted
// for the custom kinds and are inclusive.
type Window struct {
	Kind  WindowKind
	Start time.Time
	End   time.Time
}

// Granularity returns the bucket width the window resolves to.
func (w Window) Granularity() Granularity {
	switch w.Kind {
	case WindowYearToDate, WindowLast12Months, WindowLast24Months, WindowCustomMonths:
		return GranularityMonthly
	default:
		return GranularityDaily
	}
}

// resolve computes the inclusive [start, end] day range of the window for
// the supplied now. Custom bounds given in reverse order are swapped;
// custom spans beyond the cap are trimmed from the start.
func (w Window) resolve(now time.Time) (start, end time.Time) {
	today := truncateDay(now)

	switch w.Kind {
	case WindowThisWeek:
		start = startOfWeek(today)
		end = start.AddDate(0, 0, 6)
	case WindowThisMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	case WindowThisYear:
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(today.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	case WindowCustomDays:
		start, end = truncateDay(w.Start), truncateDay(w.End)
		if end.Before(start) {
			start, end = end, start
		}
		if days := daysInclusive(start, end); days > maxCustomDays {
			start = end.AddDate(0, 0, -(maxCustomDays - 1))
		}
	case WindowYearToDate:
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end = endOfMonth(today)
	case WindowLast12Months:
		end = endOfMonth(today)
		start = startOfMonth(today).AddDate(0, -11, 0)
	case WindowLast24Months:
		end = endOfMonth(today)
		start = startOfMonth(today).AddDate(0, -23, 0)
	case WindowCustomMonths:
		s, e := truncateDay(w.Start), truncateDay(w.End)
		if e.Before(s) {
			s, e = e, s
		}
		start, end = startOfMonth(s), endOfMonth(e)
		if months := monthsInclusive(start, end); months > maxCustomMonths {
			start = startOfMonth(end).AddDate(0, -(maxCustomMonths - 1), 0)
		}
	default:
		// Unknown kinds fall back to the current month.
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	}
	return start, end
}

// bucketCount returns how many buckets the resolved window spans.
func (w Window) bucketCount(start, end time.Time) int {
	if w.Granularity() == GranularityMonthly {
		return monthsInclusive(start, end)
	}
	return daysInclusive(start, end)
}

// bucketIndex maps a date to its bucket position within the window, or -1
// when the date falls outside it.
func (w Window) bucketIndex(start, end, date time.Time, n int) int {
	if date.Before(start) || date.After(end) {
		return -1
	}
	var idx int
	if w.Granularity() == GranularityMonthly {
		idx = monthsInclusive(start, date) - 1
	} else {
		idx = daysInclusive(start, date) - 1
	}
	if idx < 0 || idx >= n {
		return -1
	}
	return idx
}

// bucketLabel renders the chart label for bucket i: YYYY-MM-DD for daily
// buckets, YYYY-MM for monthly ones.
func (w Window) bucketLabel(start time.Time, i int) string {
	if w.Granularity() == GranularityMonthly {
		return start.AddDate(0, i, 0).Format("2006-01")
	}
	return start.AddDate(0, 0, i).Format("2006-01-02")
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the week
	}
	return t.AddDate(0, 0, -(weekday - 1))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, -1)
}

func daysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func monthsInclusive(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
}
