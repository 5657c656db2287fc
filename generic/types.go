/*
Package generic provides the domain-agnostic building blocks of the planner.

PURPOSE:
  This package contains the types every other package agrees on: calendar
  months, month windows, decimal money, recurring entries and the templates
  that group them, plus the month-keyed ledger they are accumulated into.
  It knows nothing about plans, financing or investment returns.

KEY CONCEPTS IN THIS FILE (types.go):
  - Kind: income, expense or saving
  - Entry: a recurring amount (optionally annual, firing in one calendar month)
  - Template: a named, reusable set of entry ids of one kind
  - Money helpers: finite-float coercion and percentage conversion

DESIGN PRINCIPLES:
  1. Precision: all amounts are decimal.Decimal, never float64
  2. Immutability: the engine reads entries and templates, never writes them
  3. Type Safety: distinct id types for entries and templates

USAGE:
  rent := generic.Entry{ID: 1, Name: "Rent", Amount: decimal.NewFromInt(900)}
  tpl := generic.Template{ID: 1, Name: "Flat", EntryIDs: []generic.EntryID{1}}

SEE ALSO:
  - month.go: Month and MonthRange
  - ledger.go: Month-keyed accumulation
  - longterm/: The projection engine built on these types
*/
package generic

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// CarryPrecision is the number of decimal places kept for values carried
// from one month to the next (compounding balances).
const CarryPrecision int32 = 10

var hundred = decimal.NewFromInt(100)

// Finite converts a float to a decimal, coercing NaN and ±Inf to zero.
func Finite(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FromPercent converts 7.5 (percent) to 0.075.
func FromPercent(p decimal.Decimal) decimal.Decimal { return p.Div(hundred) }

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID int64
type TemplateID int64

// Kind identifies which collection an entry or template belongs to.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
	KindSaving  Kind = "saving"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindIncome, KindExpense, KindSaving}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense || k == KindSaving
}

// =============================================================================
// ENTRY - One recurring amount
// =============================================================================

// Entry is a recurring income, expense or saving amount.
// Annual fields only apply to expenses.
type Entry struct {
	ID              EntryID
	Name            string
	Amount          decimal.Decimal
	Description     string
	Category        string
	IsAnnualPayment bool
	AnnualMonth     time.Month // 1..12 when IsAnnualPayment
	CreatedAt       time.Time
}

// DefaultCategory is used for expenses created without one.
const DefaultCategory = "other"

// AmountIn is what the entry contributes in month m: the full amount every
// month, or only in its calendar month when it is an annual payment.
func (e Entry) AmountIn(m Month) decimal.Decimal {
	if !e.IsAnnualPayment {
		return e.Amount
	}
	if m.Month == e.AnnualMonth {
		return e.Amount
	}
	return decimal.Zero
}

// Normalized validates e as a new record of the given kind and returns the
// canonical form: annual fields cleared where they do not apply.
func (e Entry) Normalized(kind Kind) (Entry, error) {
	if !kind.Valid() {
		return e, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return e, invalid("name", "is required")
	}
	if len(e.Name) > 255 {
		return e, invalid("name", "must be at most 255 characters")
	}
	if !e.Amount.IsPositive() {
		return e, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	if kind != KindExpense {
		e.Category = ""
		e.IsAnnualPayment = false
		e.AnnualMonth = 0
		return e, nil
	}

	if e.Category == "" {
		e.Category = DefaultCategory
	}
	if !e.IsAnnualPayment {
		e.AnnualMonth = 0
		return e, nil
	}
	if e.AnnualMonth < time.January || e.AnnualMonth > time.December {
		return e, invalid("annual_month", "is required for yearly payments (1-12)")
	}
	return e, nil
}

// =============================================================================
// TEMPLATE - Named group of entries
// =============================================================================

type Template struct {
	ID          TemplateID
	Name        string
	Description string
	EntryIDs    []EntryID
	CreatedAt   time.Time
}

// Normalized validates t as a new template.
func (t Template) Normalized() (Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return t, invalid("name", "is required")
	}
	if len(t.Name) > 255 {
		return t, invalid("name", "must be at most 255 characters")
	}
	if len(t.EntryIDs) == 0 {
		return t, invalid("entry_ids", "at least one entry is required")
	}
	seen := make(map[EntryID]bool, len(t.EntryIDs))
	ids := make([]EntryID, 0, len(t.EntryIDs))
	for _, id := range t.EntryIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	t.EntryIDs = ids
	return t, nil
}
