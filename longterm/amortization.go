/*
amortization.go - Vehicle financing injection

PURPOSE:
  Turns a Financing into expense contributions on the month ledger:
  the monthly installment plus running costs over the whole term, the down
  payment in the first month and the balloon in the last.

INSTALLMENT:
  An explicit positive MonthlyRate is used as-is. Otherwise it is derived:

    principal   = max(0, price - down - final)
    r           = max(0, annualRate) / 100 / 12
    installment = principal / n                      when r == 0
    installment = principal * r / (1 - (1+r)^-n)     otherwise

  The power is evaluated in float64 and converted back to decimal; every
  other step stays in decimal arithmetic.

FIRST MONTH:
  The start month carries installment + running cost + down payment. The
  down payment is not netted against the first installment.

SEE ALSO:
  - engine.go: Calls Inject after the periods are aggregated
*/
package longterm

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/generic"
)

var twelve = decimal.NewFromInt(12)

// FinancingSummary reports the derived financing figures of a run.
type FinancingSummary struct {
	Principal          decimal.Decimal
	Installment        decimal.Decimal
	InstallmentDerived bool // true when computed from the interest rate
	RunningCost        decimal.Decimal
	StartMonth         generic.Month
	EndMonth           generic.Month
	TermMonths         int
	TotalOutlay        decimal.Decimal // down + installment*term + final
}

// Principal is the financed amount, never negative.
func (f *Financing) Principal() decimal.Decimal {
	return generic.NonNegative(f.PurchasePrice.Sub(f.DownPayment).Sub(f.FinalPayment))
}

// RunningCost is the monthly cost of owning the vehicle.
func (f *Financing) RunningCost() decimal.Decimal {
	return generic.Sum(f.InsuranceMonthly, f.FuelMonthly, f.MaintenanceMonthly, f.TaxMonthly)
}

// Installment returns the monthly installment and whether it was derived
// from the interest rate rather than taken from MonthlyRate.
func (f *Financing) Installment() (decimal.Decimal, bool) {
	if f.MonthlyRate.IsPositive() {
		return f.MonthlyRate, false
	}
	return AnnuityInstallment(f.Principal(), f.AnnualInterestRatePercent, f.TermMonths), true
}

// AnnuityInstallment is the fixed monthly payment that amortizes principal
// over n months at annualRatePercent. A non-positive rate splits the
// principal evenly; a non-positive term yields zero.
func AnnuityInstallment(principal, annualRatePercent decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	months := decimal.NewFromInt(int64(n))
	r := generic.FromPercent(generic.NonNegative(annualRatePercent)).Div(twelve)
	if r.IsZero() {
		return principal.Div(months)
	}

	// 1 - (1+r)^-n, via log1p/expm1 to keep precision for tiny rates.
	rf := r.InexactFloat64()
	denom := -math.Expm1(-float64(n) * math.Log1p(rf))
	if denom <= 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return principal.Div(months)
	}
	return principal.Mul(r).Div(decimal.NewFromFloat(denom))
}

// Summary computes the financing figures without touching a ledger.
func (f *Financing) Summary() *FinancingSummary {
	if !f.Active() {
		return nil
	}
	window, _ := f.Window()
	installment, derived := f.Installment()
	return &FinancingSummary{
		Principal:          f.Principal(),
		Installment:        installment,
		InstallmentDerived: derived,
		RunningCost:        f.RunningCost(),
		StartMonth:         window.Start,
		EndMonth:           window.End,
		TermMonths:         f.TermMonths,
		TotalOutlay: f.DownPayment.
			Add(installment.Mul(decimal.NewFromInt(int64(f.TermMonths)))).
			Add(f.FinalPayment),
	}
}

// Inject adds the financing costs to the ledger and returns the summary.
// An inactive financing leaves the ledger untouched and returns nil.
func (f *Financing) Inject(ledger *generic.MonthLedger) *FinancingSummary {
	s := f.Summary()
	if s == nil {
		return nil
	}
	monthly := s.Installment.Add(s.RunningCost)
	for _, m := range (generic.Period{Start: s.StartMonth, End: s.EndMonth}).Months() {
		ledger.AddExpense(m, monthly)
	}
	ledger.AddExpense(s.StartMonth, f.DownPayment)
	ledger.AddExpense(s.EndMonth, f.FinalPayment)
	return s
}
