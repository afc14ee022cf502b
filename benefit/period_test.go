package benefit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/voucher-engine/benefit"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	// GIVEN: A timestamp with wall clock components
	ts := time.Date(2025, time.May, 12, 17, 45, 3, 0, time.UTC)

	// WHEN: Truncating to a Date
	d := benefit.DateOf(ts)

	// THEN: Only the calendar day remains
	assert.Equal(t, "2025-05-12", d.String())
	assert.Equal(t, 12, d.Day())
	assert.Equal(t, time.May, d.Month())
}

func TestParseDate(t *testing.T) {
	d, err := benefit.ParseDate("2025-05-15")
	require.NoError(t, err)
	assert.Equal(t, benefit.NewDate(2025, time.May, 15), d)

	_, err = benefit.ParseDate("15/05/2025")
	assert.Error(t, err, "non-ISO form should be rejected")
}

func TestDate_Comparisons(t *testing.T) {
	a := benefit.NewDate(2025, time.May, 10)
	b := benefit.NewDate(2025, time.May, 15)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.False(t, a.Equal(b))
}

func TestDate_IsWeekend(t *testing.T) {
	// May 2025: the 3rd is a Saturday, the 4th a Sunday, the 5th a Monday.
	assert.True(t, benefit.NewDate(2025, time.May, 3).IsWeekend())
	assert.True(t, benefit.NewDate(2025, time.May, 4).IsWeekend())
	assert.False(t, benefit.NewDate(2025, time.May, 5).IsWeekend())
}

// =============================================================================
// WORKING DAY TESTS
// =============================================================================

func TestWorkdaysBetween_FullMonth(t *testing.T) {
	// GIVEN: May 2025, which has 22 weekdays
	from := benefit.NewDate(2025, time.May, 1)
	to := benefit.NewDate(2025, time.May, 31)

	// WHEN: Counting with the empty calendar
	days := benefit.WorkdaysBetween(from, to, nil)

	// THEN
	assert.Equal(t, 22, days)
}

func TestWorkdaysBetween_RespectsHolidays(t *testing.T) {
	// GIVEN: A union calendar with May 1st as a holiday (a Thursday)
	table := benefit.RateTable{
		"São Paulo": {
			DailyRate:   benefit.MustMoney("37.50"),
			WorkingDays: 21,
			Holidays:    []benefit.Date{benefit.NewDate(2025, time.May, 1)},
		},
	}
	cal := table.Calendar("São Paulo")

	// WHEN: Counting the first week
	days := benefit.WorkdaysBetween(
		benefit.NewDate(2025, time.May, 1),
		benefit.NewDate(2025, time.May, 2),
		cal,
	)

	// THEN: Only May 2nd counts
	assert.Equal(t, 1, days)
}

func TestWorkdaysBetween_InvertedRangeIsZero(t *testing.T) {
	days := benefit.WorkdaysBetween(
		benefit.NewDate(2025, time.May, 20),
		benefit.NewDate(2025, time.May, 10),
		nil,
	)
	assert.Equal(t, 0, days)
}

// =============================================================================
// PERIOD TESTS
// =============================================================================

func TestPeriod_Bounds(t *testing.T) {
	p := benefit.NewPeriod(2025, time.May)

	assert.Equal(t, benefit.NewDate(2025, time.May, 1), p.Start())
	assert.Equal(t, benefit.NewDate(2025, time.May, 31), p.End())
	assert.True(t, p.Contains(benefit.NewDate(2025, time.May, 15)))
	assert.False(t, p.Contains(benefit.NewDate(2025, time.June, 1)))
	assert.False(t, p.Contains(benefit.NewDate(2025, time.April, 30)))
}

func TestPeriod_FebruaryEnd(t *testing.T) {
	assert.Equal(t, benefit.NewDate(2024, time.February, 29), benefit.NewPeriod(2024, time.February).End())
	assert.Equal(t, benefit.NewDate(2025, time.February, 28), benefit.NewPeriod(2025, time.February).End())
}

func TestPeriod_CompetenceLabel(t *testing.T) {
	// The distributed report uses the MM.YYYY form.
	assert.Equal(t, "05.2025", benefit.NewPeriod(2025, time.May).Competence())
	assert.Equal(t, "12.2024", benefit.NewPeriod(2024, time.December).Competence())
}
