/*
Package longterm implements the long-term financial projection engine.

PURPOSE:
  Given recurring income, expense and saving templates assigned to month
  periods, plus an optional vehicle-financing schedule, Project produces a
  month-by-month table with running cash balance, a compounding invested
  balance and total net wealth.

PIPELINE (strictly downstream):
  1. Catalog      - by-id index of entries and templates, built once per run
  2. Aggregate    - each period's monthly flows summed into a MonthLedger
  3. Financing    - installment, running costs, down and final payment injected
  4. Wealth pass  - one chronological walk carrying cash and invested balances

PURITY:
  The engine performs no I/O, keeps no package state and never mutates its
  inputs. Identical inputs give identical rows.

SEE ALSO:
  - generic/ledger.go: MonthLedger
  - factory/plan.go: Builds Plan values from JSON/YAML/TOML documents
  - api/plans.go: Loads collections from the store and calls Project
*/
package longterm

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/generic"
)

// =============================================================================
// INPUT COLLECTIONS
// =============================================================================

// Entries holds the entry collections keyed by kind.
type Entries map[generic.Kind][]generic.Entry

// Templates holds the template collections keyed by kind.
type Templates map[generic.Kind][]generic.Template

// =============================================================================
// PLAN
// =============================================================================

type PlanID int64

// Period assigns template sets to an inclusive month window.
type Period struct {
	Start              generic.Month
	End                generic.Month
	IncomeTemplateIDs  []generic.TemplateID
	ExpenseTemplateIDs []generic.TemplateID
	SavingTemplateIDs  []generic.TemplateID
}

func (p Period) Window() generic.Period { return generic.Period{Start: p.Start, End: p.End} }

// TemplateIDs returns the ids selected for kind.
func (p Period) TemplateIDs(kind generic.Kind) []generic.TemplateID {
	switch kind {
	case generic.KindIncome:
		return p.IncomeTemplateIDs
	case generic.KindExpense:
		return p.ExpenseTemplateIDs
	case generic.KindSaving:
		return p.SavingTemplateIDs
	}
	return nil
}

// Financing describes a vehicle purchase paid off in monthly installments.
type Financing struct {
	StartMonth    generic.Month // zero = no financing
	PurchasePrice decimal.Decimal
	DownPayment   decimal.Decimal
	FinalPayment  decimal.Decimal // balloon, due in the last month
	TermMonths    int

	// MonthlyRate is an explicit installment. When not positive the
	// installment is derived from AnnualInterestRatePercent.
	MonthlyRate               decimal.Decimal
	AnnualInterestRatePercent decimal.Decimal

	InsuranceMonthly   decimal.Decimal
	FuelMonthly        decimal.Decimal
	MaintenanceMonthly decimal.Decimal
	TaxMonthly         decimal.Decimal
}

// MaxTermMonths caps the financing term at one hundred years.
const MaxTermMonths = 1200

// Active reports whether the financing contributes anything. A term above
// MaxTermMonths, or one ending after generic.MaxMonth, is never active.
func (f *Financing) Active() bool {
	if f == nil || f.StartMonth.IsZero() {
		return false
	}
	_, ok := f.Window()
	return ok
}

// Window is the installment window [start, start+term-1]. ok is false for a
// term outside 1..MaxTermMonths and for a window ending after generic.MaxMonth.
func (f *Financing) Window() (window generic.Period, ok bool) {
	if f.TermMonths <= 0 || f.TermMonths > MaxTermMonths || f.StartMonth.After(generic.MaxMonth) {
		return generic.Period{}, false
	}
	window = generic.PeriodForTerm(f.StartMonth, f.TermMonths)
	if window.End.After(generic.MaxMonth) {
		return generic.Period{}, false
	}
	return window, true
}

// Validate rejects negative amounts and a term the calendar cannot hold.
// A nil financing is valid.
func (f *Financing) Validate() error {
	if f == nil {
		return nil
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"car_purchase_price", f.PurchasePrice},
		{"car_down_payment", f.DownPayment},
		{"car_final_payment", f.FinalPayment},
		{"car_monthly_rate", f.MonthlyRate},
		{"car_interest_rate", f.AnnualInterestRatePercent},
		{"car_insurance_monthly", f.InsuranceMonthly},
		{"car_fuel_monthly", f.FuelMonthly},
		{"car_maintenance_monthly", f.MaintenanceMonthly},
		{"car_tax_monthly", f.TaxMonthly},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return &generic.ValidationError{Field: a.field, Message: "must not be negative"}
		}
	}

	switch {
	case f.TermMonths < 0:
		return &generic.ValidationError{Field: "car_term_months", Message: "must not be negative"}
	case f.TermMonths > MaxTermMonths:
		return &generic.ValidationError{Field: "car_term_months",
			Message: fmt.Sprintf("must be at most %d", MaxTermMonths)}
	}
	if f.TermMonths > 0 && !f.StartMonth.IsZero() {
		if _, ok := f.Window(); !ok {
			return &generic.ValidationError{Field: "car_term_months",
				Message: fmt.Sprintf("financing must end by %s", generic.MaxMonth)}
		}
	}
	return nil
}

// Plan is the sole input of the engine besides the collections.
type Plan struct {
	StartingCashBalance      decimal.Decimal
	StartingSavingBalance    decimal.Decimal
	SavingsReturnRatePercent decimal.Decimal // per annum, >= 0
	Periods                  []Period
	Financing                *Financing
}

// DefaultSavingsReturnRate is applied to new plans that don't set one.
var DefaultSavingsReturnRate = decimal.NewFromInt(7)

// PlanRecord is a persisted plan.
type PlanRecord struct {
	ID          PlanID
	Name        string
	Description string
	CreatedAt   time.Time
	Plan
}

// =============================================================================
// OUTPUT
// =============================================================================

// MonthlyRow is one line of the projection table.
type MonthlyRow struct {
	Month              generic.Month
	Income             decimal.Decimal
	Expense            decimal.Decimal
	Saving             decimal.Decimal
	Net                decimal.Decimal // income - expense - saving
	CashBalance        decimal.Decimal
	SavingAccountTotal decimal.Decimal // nominal, no growth
	InvestedBalance    decimal.Decimal // compounding
	TotalWealth        decimal.Decimal // cash + invested
}

// Projection is the result of one engine run.
type Projection struct {
	Rows      []MonthlyRow
	Financing *FinancingSummary // nil without active financing
}

// Installment returns the monthly installment when financing is present.
func (p *Projection) Installment() (decimal.Decimal, bool) {
	if p.Financing == nil {
		return decimal.Zero, false
	}
	return p.Financing.Installment, true
}

// Final returns the last row, if any.
func (p *Projection) Final() (MonthlyRow, bool) {
	if len(p.Rows) == 0 {
		return MonthlyRow{}, false
	}
	return p.Rows[len(p.Rows)-1], true
}
