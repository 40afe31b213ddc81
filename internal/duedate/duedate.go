// Package duedate computes recurrence due dates: a base timestamp plus a
// factor of days, months or years.
package duedate

import (
	"time"

	"github.com/roach88/taskflow/internal/task"
)

// Compute returns base shifted by factor units.
//
// A factor <= 0 returns base unchanged. Months and years are calendar-aware:
// when the base day does not exist in the target month the result is clamped
// to that month's last day (Jan 31 + 1 month = Feb 28 or 29). Unknown units
// are treated as days. Time of day and location are preserved.
func Compute(base time.Time, factor int, unit task.Timeframe) time.Time {
	if factor <= 0 {
		return base
	}

	switch unit {
	case task.TimeframeMonths:
		return addMonths(base, factor)
	case task.TimeframeYears:
		return addMonths(base, factor*12)
	default:
		return base.AddDate(0, 0, factor)
	}
}

// addMonths adds n calendar months without letting time.AddDate normalize
// an overflowing day into the following month.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()

	// zero-based month index keeps the division simple
	idx := int(month) - 1 + n
	year += idx / 12
	idx %= 12
	if idx < 0 {
		idx += 12
		year--
	}
	target := time.Month(idx + 1)

	if last := DaysIn(year, target); day > last {
		day = last
	}

	hour, minute, sec := t.Clock()
	return time.Date(year, target, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
