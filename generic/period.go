package generic

import "fmt"

// =============================================================================
// PERIOD - Inclusive calendar-month window
// =============================================================================

// Period is an inclusive [Start, End] range of calendar months.
//
// Examples:
//   - A year of salary: 2025-01 .. 2025-12
//   - A single bonus month: 2025-06 .. 2025-06
//   - A loan term: start .. start+term-1
type Period struct {
	Start Month
	End   Month
}

// PeriodForTerm returns the window covering n months beginning at start.
func PeriodForTerm(start Month, n int) Period {
	return Period{Start: start, End: start.AddMonths(n - 1)}
}

// Validate reports a missing bound or an inverted range.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: start and end month are required", ErrInvalidPeriod)
	}
	if p.Start.After(p.End) {
		return fmt.Errorf("%w: start month %s is after end month %s", ErrInvalidPeriod, p.Start, p.End)
	}
	return nil
}

// Months returns every month in the period, nil when the period is inverted.
func (p Period) Months() []Month {
	months, _ := MonthRange(p.Start, p.End)
	return months
}

// Len is the number of months covered; 0 for an inverted period.
func (p Period) Len() int {
	n := MonthsBetween(p.Start, p.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

func (p Period) String() string {
	return p.Start.String() + " → " + p.End.String()
}
