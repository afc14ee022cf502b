package benefit

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar day in UTC. All pipeline dates are day-granular; wall
// clock components from the source extracts are dropped on construction.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

// ParseDate parses the YYYY-MM-DD form used by payloads and configuration.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// =============================================================================
// HOLIDAY CALENDAR - Union-specific non-working days
// =============================================================================

// HolidayCalendar answers whether a date is a holiday on a union's calendar.
// Weekends are handled separately by Date.IsWeekend.
type HolidayCalendar interface {
	IsHoliday(d Date) bool
}

type noHolidays struct{}

func (noHolidays) IsHoliday(Date) bool { return false }

type holidaySet []Date

func (hs holidaySet) IsHoliday(d Date) bool {
	for _, h := range hs {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

// IsWorkday reports whether a date counts on the union's working-day calendar.
func IsWorkday(d Date, cal HolidayCalendar) bool {
	if d.IsWeekend() {
		return false
	}
	if cal != nil && cal.IsHoliday(d) {
		return false
	}
	return true
}

// WorkdaysBetween counts working days in [from, to] inclusive on the given
// calendar. Returns 0 when from is after to.
func WorkdaysBetween(from, to Date, cal HolidayCalendar) int {
	count := 0
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		if IsWorkday(d, cal) {
			count++
		}
	}
	return count
}

// =============================================================================
// PERIOD - Monthly competence
// =============================================================================

// Period is one monthly competence. Entitlement is always computed for a
// whole competence, never at an arbitrary point in time.
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(year int, month time.Month) Period { return Period{Year: year, Month: month} }

// CurrentPeriod returns the competence for the current month.
func CurrentPeriod() Period {
	now := time.Now().UTC()
	return Period{Year: now.Year(), Month: now.Month()}
}

func (p Period) Start() Date { return NewDate(p.Year, p.Month, 1) }

func (p Period) End() Date {
	return Date{t: time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// Contains reports whether a date falls inside the competence.
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start()) && d.BeforeOrEqual(p.End())
}

// Competence renders the MM.YYYY label used on the distributed report.
func (p Period) Competence() string {
	return fmt.Sprintf("%02d.%d", int(p.Month), p.Year)
}

func (p Period) String() string { return p.Competence() }
