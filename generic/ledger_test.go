package generic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/financeflow/generic"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMonthLedger_AddIsAdditive(t *testing.T) {
	l := generic.NewMonthLedger()
	jan := generic.NewMonth(2025, time.January)

	l.Add(jan, d("3000"), d("1000"), d("200"))
	l.Add(jan, d("500"), d("0"), d("0"))
	l.AddExpense(jan, d("250"))

	lines := l.Lines()
	require.Len(t, lines, 1)
	line := lines[0]
	assert.True(t, d("3500").Equal(line.Income))
	assert.True(t, d("1250").Equal(line.Expense))
	assert.True(t, d("200").Equal(line.Saving))
	assert.True(t, d("2050").Equal(line.Net()))
}

func TestMonthLedger_ZeroAmountsStillTouchMonth(t *testing.T) {
	l := generic.NewMonthLedger()
	l.Add(generic.NewMonth(2025, time.March), decimal.Zero, decimal.Zero, decimal.Zero)

	assert.Equal(t, 1, l.Len())
	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "2025-03", lines[0].Month.String())
	assert.True(t, lines[0].Net().IsZero())
}

func TestMonthLedger_LinesSortedAscending(t *testing.T) {
	l := generic.NewMonthLedger()
	for _, m := range []generic.Month{
		generic.NewMonth(2026, time.February),
		generic.NewMonth(2024, time.December),
		generic.NewMonth(2025, time.June),
		generic.NewMonth(2026, time.February),
	} {
		l.AddExpense(m, d("1"))
	}

	lines := l.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "2024-12", lines[0].Month.String())
	assert.Equal(t, "2025-06", lines[1].Month.String())
	assert.Equal(t, "2026-02", lines[2].Month.String())
	assert.True(t, d("2").Equal(lines[2].Expense))
}
