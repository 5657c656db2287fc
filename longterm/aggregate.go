package longterm

import (
	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/generic"
)

// =============================================================================
// MONTHLY LEDGER AGGREGATOR
// =============================================================================

// contribution is the monthly flow of one period. Income and saving are
// flat; expenses depend on the calendar month because of annual payments.
type contribution struct {
	income   decimal.Decimal
	saving   decimal.Decimal
	expenses []generic.Entry
}

func newContribution(p Period, c *Catalog) contribution {
	return contribution{
		income:   sumAmounts(c.Resolve(generic.KindIncome, p.IncomeTemplateIDs)),
		saving:   sumAmounts(c.Resolve(generic.KindSaving, p.SavingTemplateIDs)),
		expenses: c.Resolve(generic.KindExpense, p.ExpenseTemplateIDs),
	}
}

// expenseIn is the period's expense for month m.
func (k contribution) expenseIn(m generic.Month) decimal.Decimal {
	total := decimal.Zero
	for _, e := range k.expenses {
		total = total.Add(e.AmountIn(m))
	}
	return total
}

func sumAmounts(entries []generic.Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Aggregate distributes every period's monthly flows over its months and
// sums overlapping months. The first invalid period aborts the whole run
// with a PeriodError carrying its 1-based index; no partial ledger is
// returned.
func Aggregate(periods []Period, c *Catalog) (*generic.MonthLedger, error) {
	ledger := generic.NewMonthLedger()
	for i, p := range periods {
		if err := p.Window().Validate(); err != nil {
			return nil, &generic.PeriodError{Index: i + 1, Err: err}
		}
		months, ok := generic.MonthRange(p.Start, p.End)
		if !ok {
			return nil, &generic.PeriodError{Index: i + 1, Err: generic.ErrInvalidPeriod}
		}

		k := newContribution(p, c)
		for _, m := range months {
			ledger.Add(m, k.income, k.expenseIn(m), k.saving)
		}
	}
	return ledger, nil
}
