/*
ledger.go - Month-keyed accumulation of income, expense and saving

PURPOSE:
  The MonthLedger is where every contribution lands before the projection
  pass walks it. Periods, financing installments and one-time payments all
  write into it; nothing ever subtracts from it.

CRITICAL INVARIANTS:
  1. ADDITIVE: Add never replaces, it sums into the existing line. This is
     how overlapping periods compose.
  2. TOUCHED KEYS: A month appears once anything was added to it, even a
     zero amount. A month nobody touched never appears.
  3. ORDERED READ: Lines() returns months strictly ascending, no duplicates.

EXAMPLE:
  l := generic.NewMonthLedger()
  l.Add(jan, income, expense, saving)   // period 1
  l.Add(jan, income2, zero, zero)       // period 2 overlapping January
  l.AddExpense(jan, downPayment)        // financing
  for _, line := range l.Lines() { ... }

SEE ALSO:
  - longterm/aggregate.go: Writes period contributions
  - longterm/amortization.go: Writes financing costs
  - longterm/wealth.go: Reads the ordered lines
*/
package generic

import (
	"sort"

	"github.com/shopspring/decimal"
)

// LedgerLine is the accumulated flow of one month.
type LedgerLine struct {
	Month   Month
	Income  decimal.Decimal
	Expense decimal.Decimal
	Saving  decimal.Decimal
}

// Net is income minus expense minus saving.
func (l LedgerLine) Net() decimal.Decimal {
	return l.Income.Sub(l.Expense).Sub(l.Saving)
}

// MonthLedger is not safe for concurrent writes; each projection run owns one.
type MonthLedger struct {
	lines map[Month]*LedgerLine
}

func NewMonthLedger() *MonthLedger {
	return &MonthLedger{lines: make(map[Month]*LedgerLine)}
}

func (l *MonthLedger) line(m Month) *LedgerLine {
	line, ok := l.lines[m]
	if !ok {
		line = &LedgerLine{Month: m, Income: decimal.Zero, Expense: decimal.Zero, Saving: decimal.Zero}
		l.lines[m] = line
	}
	return line
}

// Add sums the three flows into month m.
func (l *MonthLedger) Add(m Month, income, expense, saving decimal.Decimal) {
	line := l.line(m)
	line.Income = line.Income.Add(income)
	line.Expense = line.Expense.Add(expense)
	line.Saving = line.Saving.Add(saving)
}

// AddExpense sums an expense into month m.
func (l *MonthLedger) AddExpense(m Month, expense decimal.Decimal) {
	line := l.line(m)
	line.Expense = line.Expense.Add(expense)
}

// Len is the number of touched months.
func (l *MonthLedger) Len() int { return len(l.lines) }

// Lines returns copies of all lines sorted by month ascending.
func (l *MonthLedger) Lines() []LedgerLine {
	out := make([]LedgerLine, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}
