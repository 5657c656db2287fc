package generic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// MONTH - Calendar month granularity (the ledger key of this system)
// =============================================================================

// Month is a calendar month. The zero value means "unset".
type Month struct {
	Year  int
	Month time.Month
}

// MonthLayout is the wire format for months: ISO "YYYY-MM".
const MonthLayout = "2006-01"

// MaxMonth is the last month expressible in MonthLayout.
var MaxMonth = Month{Year: 9999, Month: time.December}

// Constructors
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a strict "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	year, month, ok := strings.Cut(s, "-")
	if !ok || len(year) != 4 || len(month) != 2 {
		return Month{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidMonth, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidMonth, s)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Month{}, fmt.Errorf("%w: %q (expected YYYY-MM)", ErrInvalidMonth, s)
	}
	return Month{Year: y, Month: time.Month(m)}, nil
}

// ParseOptionalMonth returns the zero Month for an empty string.
func ParseOptionalMonth(s string) (Month, error) {
	if strings.TrimSpace(s) == "" {
		return Month{}, nil
	}
	return ParseMonth(s)
}

// ordinal is a dense, totally ordered month index.
func (m Month) ordinal() int { return m.Year*12 + int(m.Month) - 1 }

func fromOrdinal(n int) Month {
	y, mo := n/12, n%12
	if mo < 0 {
		y, mo = y-1, mo+12
	}
	return Month{Year: y, Month: time.Month(mo + 1)}
}

// Comparison
func (m Month) Before(other Month) bool { return m.ordinal() < other.ordinal() }
func (m Month) After(other Month) bool  { return m.ordinal() > other.ordinal() }

// Compare returns -1, 0 or +1.
func (m Month) Compare(other Month) int {
	switch a, b := m.ordinal(), other.ordinal(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Arithmetic
func (m Month) AddMonths(n int) Month { return fromOrdinal(m.ordinal() + n) }

// MonthsBetween counts months from -> to, negative when to is earlier.
func MonthsBetween(from, to Month) int { return to.ordinal() - from.ordinal() }

// Properties
func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// =============================================================================
// MONTH RANGE
// =============================================================================

// MonthRange expands [start, end] into every calendar month it spans,
// ascending and contiguous. ok is false when start is after end.
func MonthRange(start, end Month) (months []Month, ok bool) {
	n := MonthsBetween(start, end)
	if n < 0 {
		return nil, false
	}
	months = make([]Month, 0, n+1)
	for i := 0; i <= n; i++ {
		months = append(months, start.AddMonths(i))
	}
	return months, true
}
