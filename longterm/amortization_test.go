package longterm_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

func TestAnnuityInstallment_ZeroRate_EvenSplit(t *testing.T) {
	// GIVEN: 24000 price, 4000 down, no balloon, 48 months at 0%
	// THEN: Installment is 20000/48 and the financed outlay equals the price

	f := &longterm.Financing{
		StartMonth:    month(2025, time.January),
		PurchasePrice: dec("24000"),
		DownPayment:   dec("4000"),
		TermMonths:    48,
	}

	installment, derived := f.Installment()
	assert.True(t, derived)
	assert.InDelta(t, 416.6666666, installment.InexactFloat64(), 1e-6)

	s := f.Summary()
	require.NotNil(t, s)
	assertDec(t, "20000", s.Principal)
	assert.InDelta(t, 24000, s.TotalOutlay.InexactFloat64(), 1e-9)
}

func TestAnnuityInstallment_WithInterest(t *testing.T) {
	cases := []struct {
		name      string
		principal string
		rate      string
		months    int
		want      float64
	}{
		{"6% over a year", "10000", "6", 12, 860.664},
		{"4.9% over 5 years", "20000", "4.9", 60, 376.509},
		{"negative rate clamps to zero", "1200", "-3", 12, 100},
		{"zero term", "1000", "5", 0, 0},
		{"zero principal", "0", "5", 12, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := longterm.AnnuityInstallment(dec(tc.principal), dec(tc.rate), tc.months)
			assert.InDelta(t, tc.want, got.InexactFloat64(), 0.001)
		})
	}
}

func TestFinancing_ExplicitRateWins(t *testing.T) {
	f := &longterm.Financing{
		StartMonth:                month(2025, time.January),
		PurchasePrice:             dec("20000"),
		TermMonths:                24,
		MonthlyRate:               dec("399"),
		AnnualInterestRatePercent: dec("9"),
	}

	installment, derived := f.Installment()
	assert.False(t, derived)
	assertDec(t, "399", installment)
}

func TestFinancing_PrincipalNeverNegative(t *testing.T) {
	f := &longterm.Financing{PurchasePrice: dec("10000"), DownPayment: dec("8000"), FinalPayment: dec("5000")}
	assert.True(t, f.Principal().IsZero())
}

func TestFinancing_Inactive(t *testing.T) {
	cases := map[string]*longterm.Financing{
		"nil":       nil,
		"no start":  {PurchasePrice: dec("1000"), TermMonths: 12},
		"zero term": {StartMonth: month(2025, time.January), PurchasePrice: dec("1000")},
		"negative":  {StartMonth: month(2025, time.January), TermMonths: -3},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, f.Active())
			if f != nil {
				ledger := generic.NewMonthLedger()
				assert.Nil(t, f.Inject(ledger))
				assert.Equal(t, 0, ledger.Len())
			}
		})
	}
}

func TestProject_FinancingInjection(t *testing.T) {
	// GIVEN: No periods, a 3-month financing from 2025-11 with running costs
	// THEN: Financing months appear on their own; down payment in the first
	//       month on top of the installment, balloon in the last

	plan := longterm.Plan{
		StartingCashBalance: dec("10000"),
		Financing: &longterm.Financing{
			StartMonth:         month(2025, time.November),
			PurchasePrice:      dec("5000"),
			DownPayment:        dec("1000"),
			FinalPayment:       dec("1000"),
			TermMonths:         3,
			InsuranceMonthly:   dec("50"),
			FuelMonthly:        dec("100"),
			MaintenanceMonthly: dec("20"),
			TaxMonthly:         dec("30"),
		},
	}

	proj, err := longterm.Project(longterm.Input{Plan: plan})
	require.NoError(t, err)
	require.Len(t, proj.Rows, 3)

	// principal 3000 / 3 = 1000, running 200
	assert.Equal(t, month(2025, time.November), proj.Rows[0].Month)
	assert.Equal(t, month(2026, time.January), proj.Rows[2].Month)
	assertDec(t, "2200", proj.Rows[0].Expense)
	assertDec(t, "1200", proj.Rows[1].Expense)
	assertDec(t, "2200", proj.Rows[2].Expense)
	assertDec(t, "4400", proj.Rows[2].CashBalance)

	installment, ok := proj.Installment()
	require.True(t, ok)
	assertDec(t, "1000", installment)
	assert.Equal(t, month(2026, time.January), proj.Financing.EndMonth)
	assertDec(t, "200", proj.Financing.RunningCost)
}

func TestProject_FinancingSingleMonthTerm(t *testing.T) {
	// GIVEN: A one-month financing with down payment, balloon and running costs
	// THEN: Installment, running cost, down payment and balloon all land in
	//       the single month

	plan := longterm.Plan{
		StartingCashBalance: dec("20000"),
		Financing: &longterm.Financing{
			StartMonth:       month(2025, time.March),
			PurchasePrice:    dec("10000"),
			DownPayment:      dec("2000"),
			FinalPayment:     dec("3000"),
			TermMonths:       1,
			InsuranceMonthly: dec("40"),
			TaxMonthly:       dec("10"),
		},
	}

	proj, err := longterm.Project(longterm.Input{Plan: plan})
	require.NoError(t, err)
	require.Len(t, proj.Rows, 1)

	// principal 5000 over one month + running 50 + down 2000 + balloon 3000
	assert.Equal(t, month(2025, time.March), proj.Rows[0].Month)
	assertDec(t, "10050", proj.Rows[0].Expense)
	assertDec(t, "9950", proj.Rows[0].CashBalance)

	require.NotNil(t, proj.Financing)
	assert.Equal(t, proj.Financing.StartMonth, proj.Financing.EndMonth)
	assertDec(t, "5000", proj.Financing.Installment)
	assertDec(t, "10000", proj.Financing.TotalOutlay)
}

func TestProject_FinancingTermOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		start generic.Month
		term  int
	}{
		{"int max", month(2025, time.January), math.MaxInt},
		{"above cap", month(2025, time.January), longterm.MaxTermMonths + 1},
		{"past last month", month(9999, time.June), 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN: A financing whose window cannot be expressed
			// WHEN: Projected
			// THEN: A validation error, no panic, and the financing is inactive
			f := &longterm.Financing{StartMonth: tc.start, PurchasePrice: dec("1000"), TermMonths: tc.term}
			assert.False(t, f.Active())
			_, ok := f.Window()
			assert.False(t, ok)

			ledger := generic.NewMonthLedger()
			assert.Nil(t, f.Inject(ledger))
			assert.Equal(t, 0, ledger.Len())

			var proj *longterm.Projection
			var err error
			require.NotPanics(t, func() {
				proj, err = longterm.Project(longterm.Input{Plan: longterm.Plan{Financing: f}})
			})
			assert.Nil(t, proj)
			assert.ErrorIs(t, err, generic.ErrValidation)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestFinancing_ValidateRejectsNegativeAmounts(t *testing.T) {
	cases := map[string]func(f *longterm.Financing){
		"car_purchase_price":      func(f *longterm.Financing) { f.PurchasePrice = dec("-1") },
		"car_down_payment":        func(f *longterm.Financing) { f.DownPayment = dec("-5000") },
		"car_final_payment":       func(f *longterm.Financing) { f.FinalPayment = dec("-1") },
		"car_monthly_rate":        func(f *longterm.Financing) { f.MonthlyRate = dec("-1") },
		"car_interest_rate":       func(f *longterm.Financing) { f.AnnualInterestRatePercent = dec("-0.5") },
		"car_insurance_monthly":   func(f *longterm.Financing) { f.InsuranceMonthly = dec("-1") },
		"car_fuel_monthly":        func(f *longterm.Financing) { f.FuelMonthly = dec("-1") },
		"car_maintenance_monthly": func(f *longterm.Financing) { f.MaintenanceMonthly = dec("-1") },
		"car_tax_monthly":         func(f *longterm.Financing) { f.TaxMonthly = dec("-1") },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			f := &longterm.Financing{StartMonth: month(2025, time.January), PurchasePrice: dec("1000"), TermMonths: 12}
			require.NoError(t, f.Validate())

			mutate(f)
			var ve *generic.ValidationError
			require.ErrorAs(t, f.Validate(), &ve)
			assert.Equal(t, field, ve.Field)
		})
	}

	var nilFinancing *longterm.Financing
	assert.NoError(t, nilFinancing.Validate())
}

func TestProject_FinancingOverlapsPeriods(t *testing.T) {
	entries, templates := household()
	plan := longterm.Plan{
		Periods: []longterm.Period{{
			Start:              month(2025, time.January),
			End:                month(2025, time.February),
			ExpenseTemplateIDs: ids(10),
		}},
		Financing: &longterm.Financing{
			StartMonth:    month(2025, time.February),
			PurchasePrice: dec("600"),
			TermMonths:    2,
		},
	}

	proj, err := longterm.Project(longterm.Input{Plan: plan, Entries: entries, Templates: templates})
	require.NoError(t, err)
	require.Len(t, proj.Rows, 3)

	assertDec(t, "1000", proj.Rows[0].Expense)
	assertDec(t, "1300", proj.Rows[1].Expense)
	assertDec(t, "300", proj.Rows[2].Expense)
}

func TestMonthlyReturnRate(t *testing.T) {
	assert.True(t, decimal.RequireFromString("0.01").Equal(longterm.MonthlyReturnRate(dec("12"))))
	assert.True(t, longterm.MonthlyReturnRate(dec("-5")).IsZero())
}
