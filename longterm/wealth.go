package longterm

import (
	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/generic"
)

// =============================================================================
// WEALTH PROJECTION PASS
// =============================================================================

// balances are the values carried from one month to the next.
type balances struct {
	cash     decimal.Decimal
	saved    decimal.Decimal // nominal, never grows
	invested decimal.Decimal // compounds monthly
}

// MonthlyReturnRate converts an annual percentage to the monthly factor
// increment: 12 -> 0.01. Negative rates count as zero.
func MonthlyReturnRate(annualPercent decimal.Decimal) decimal.Decimal {
	return generic.FromPercent(generic.NonNegative(annualPercent)).Div(twelve)
}

// Walk runs the single chronological pass over the ledger lines.
//
// For every month the net flow is added to cash, the saving is added to the
// nominal total, and the invested balance compounds AFTER that month's
// saving is deposited. The invested balance is kept at CarryPrecision
// places between months.
func Walk(lines []generic.LedgerLine, plan Plan) []MonthlyRow {
	growth := decimal.NewFromInt(1).Add(MonthlyReturnRate(plan.SavingsReturnRatePercent))
	b := balances{
		cash:     plan.StartingCashBalance,
		saved:    plan.StartingSavingBalance,
		invested: plan.StartingSavingBalance,
	}

	rows := make([]MonthlyRow, 0, len(lines))
	for _, line := range lines {
		net := line.Net()
		b.cash = b.cash.Add(net)
		b.saved = b.saved.Add(line.Saving)
		b.invested = b.invested.Add(line.Saving).Mul(growth).Round(generic.CarryPrecision)

		rows = append(rows, MonthlyRow{
			Month:              line.Month,
			Income:             line.Income,
			Expense:            line.Expense,
			Saving:             line.Saving,
			Net:                net,
			CashBalance:        b.cash,
			SavingAccountTotal: b.saved,
			InvestedBalance:    b.invested,
			TotalWealth:        b.cash.Add(b.invested),
		})
	}
	return rows
}
