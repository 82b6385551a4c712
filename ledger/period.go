package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// FISCAL CALENDAR
// =============================================================================

// FiscalYear is the outer posting boundary. Entries dated outside every
// fiscal year are rejected with ErrNoActiveFiscalYear.
type FiscalYear struct {
	Code     string // e.g. "FY2026"
	Start    time.Time
	End      time.Time
	IsClosed bool
}

// Contains reports whether the date falls inside the year, inclusive.
func (fy FiscalYear) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(fy.Start)) && !d.After(DateOnly(fy.End))
}

// AccountingPeriod is a lockable slice of a fiscal year, normally one
// month. Locking a period blocks both posting and reversal dated
// inside it.
type AccountingPeriod struct {
	FiscalYearCode string
	Name           string // e.g. "2026-01"
	Start          time.Time
	End            time.Time
	IsLocked       bool
}

// Contains reports whether the date falls inside the period, inclusive.
func (p AccountingPeriod) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(p.Start)) && !d.After(DateOnly(p.End))
}

// MonthlyPeriods splits a fiscal year into calendar-month periods named
// "YYYY-MM". A year that does not start on the 1st gets a short first
// and last period.
func MonthlyPeriods(fy FiscalYear) []AccountingPeriod {
	var periods []AccountingPeriod
	start := DateOnly(fy.Start)
	end := DateOnly(fy.End)

	for !start.After(end) {
		monthEnd := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 1, -1)
		if monthEnd.After(end) {
			monthEnd = end
		}
		periods = append(periods, AccountingPeriod{
			FiscalYearCode: fy.Code,
			Name:           fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month())),
			Start:          start,
			End:            monthEnd,
		})
		start = monthEnd.AddDate(0, 0, 1)
	}
	return periods
}

// CalendarFiscalYear builds a January-to-December fiscal year.
func CalendarFiscalYear(year int) FiscalYear {
	return FiscalYear{
		Code:  fmt.Sprintf("FY%d", year),
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// DateOnly truncates a time to its UTC calendar date. All period
// containment checks compare dates, not instants.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
