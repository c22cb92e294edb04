package core

// dates.go implements the single date rule shared by range filtering and sorting.
//
// Record dates are stored verbatim as they arrived in the CSV, so every
// comparison goes through ParseDate. The convention is:
//
//  1. ISO first: 2024-03-15, 2024/03/15, or a full RFC 3339 timestamp
//     (time of day is discarded).
//  2. Otherwise three numeric parts split on '/' or '-', read as
//     day, month, year: 15/03/2024, 15-3-2024.
//
// Month-first input is never accepted; 03/04/2024 is the 3rd of April.

import (
	"strconv"
	"strings"
	"time"
)

// isoLayouts are tried in order before the day-month-year fallback.
var isoLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Sentinels used when a range bound is missing or unparseable.
var (
	farPast   = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	farFuture = time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ParseDate parses a record or criteria date into a UTC calendar date.
// Returns false when s matches neither the ISO layouts nor day-month-year.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return time.Time{}, false
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	day, month, year := nums[0], nums[1], nums[2]
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 0 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 31/02 into March; reject instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// dateOnly truncates t to midnight UTC of its own calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// boundOr parses a range bound, falling back to def when it is missing or invalid.
func boundOr(s string, def time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return def
}
