package duedate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/taskflow/internal/task"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		base   time.Time
		factor int
		unit   task.Timeframe
		want   time.Time
	}{
		{"leap year clamp", date(2024, 1, 31), 1, task.TimeframeMonths, date(2024, 2, 29)},
		{"non-leap clamp", date(2023, 1, 31), 1, task.TimeframeMonths, date(2023, 2, 28)},
		{"days", date(2024, 1, 1), 4, task.TimeframeDays, date(2024, 1, 5)},
		{"years", date(2024, 1, 1), 2, task.TimeframeYears, date(2026, 1, 1)},
		{"months no clamp", date(2024, 1, 1), 4, task.TimeframeMonths, date(2024, 5, 1)},
		{"months across year", date(2024, 11, 30), 3, task.TimeframeMonths, date(2025, 2, 28)},
		{"months to 30-day month", date(2024, 3, 31), 1, task.TimeframeMonths, date(2024, 4, 30)},
		{"feb 29 plus one year", date(2024, 2, 29), 1, task.TimeframeYears, date(2025, 2, 28)},
		{"feb 29 plus four years", date(2024, 2, 29), 4, task.TimeframeYears, date(2028, 2, 29)},
		{"days across month end", date(2024, 1, 30), 3, task.TimeframeDays, date(2024, 2, 2)},
		{"twelve months", date(2023, 12, 31), 12, task.TimeframeMonths, date(2024, 12, 31)},
		{"unknown unit falls back to days", date(2024, 1, 1), 4, task.Timeframe(99), date(2024, 1, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.base, tt.factor, tt.unit)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCompute_NonPositiveFactorIsNoop(t *testing.T) {
	base := time.Date(2024, 3, 15, 13, 45, 7, 99, time.UTC)

	for _, unit := range []task.Timeframe{task.TimeframeDays, task.TimeframeMonths, task.TimeframeYears} {
		assert.True(t, base.Equal(Compute(base, 0, unit)))
		assert.True(t, base.Equal(Compute(base, -3, unit)))
	}
}

func TestCompute_PreservesClockAndLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	base := time.Date(2024, 1, 31, 18, 30, 0, 0, loc)

	got := Compute(base, 1, task.TimeframeMonths)

	assert.Equal(t, time.Date(2024, 2, 29, 18, 30, 0, 0, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 28, DaysIn(2100, time.February))
	assert.Equal(t, 31, DaysIn(2024, time.December))
	assert.Equal(t, 30, DaysIn(2024, time.April))
}
