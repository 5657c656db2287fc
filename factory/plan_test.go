package factory_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/financeflow/factory"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

func TestParsePlan_FullDocument(t *testing.T) {
	doc := `{
		"name": "Family",
		"starting_balance": 2500,
		"starting_saving_balance": 10000,
		"savings_return_rate": 5.5,
		"financing_start_month": "2026-04",
		"car_purchase_price": 32000,
		"car_down_payment": 6000,
		"car_final_payment": 8000,
		"car_term_months": 48,
		"car_interest_rate": 4.9,
		"car_insurance_monthly": 65,
		"periods": [
			{"start_month": "2025-01", "end_month": "2026-12", "income_template_ids": [1], "expense_template_ids": [1, 2]}
		]
	}`

	rec, err := factory.NewPlanFactory().ParsePlan([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "Family", rec.Name)
	assert.True(t, decimal.NewFromInt(2500).Equal(rec.StartingCashBalance))
	assert.True(t, decimal.NewFromFloat(5.5).Equal(rec.SavingsReturnRatePercent))
	require.Len(t, rec.Periods, 1)
	assert.Equal(t, generic.NewMonth(2025, time.January), rec.Periods[0].Start)
	assert.Equal(t, []generic.TemplateID{1, 2}, rec.Periods[0].ExpenseTemplateIDs)
	assert.Nil(t, rec.Periods[0].SavingTemplateIDs)

	require.NotNil(t, rec.Financing)
	assert.True(t, rec.Financing.Active())
	assert.Equal(t, generic.NewMonth(2026, time.April), rec.Financing.StartMonth)
	assert.True(t, decimal.NewFromInt(18000).Equal(rec.Financing.Principal()))
}

func TestBuildPlan_Defaults(t *testing.T) {
	plan, err := factory.NewPlanFactory().BuildPlan(factory.PlanJSON{Name: "Empty"})
	require.NoError(t, err)

	assert.True(t, longterm.DefaultSavingsReturnRate.Equal(plan.SavingsReturnRatePercent))
	assert.Empty(t, plan.Periods)
	assert.False(t, plan.Financing.Active())
}

func TestBuildPlan_Rejections(t *testing.T) {
	neg := -2.0
	cases := []struct {
		name      string
		doc       factory.PlanJSON
		wantErr   error
		wantIndex int
	}{
		{
			name:    "negative return rate",
			doc:     factory.PlanJSON{SavingsReturnRate: &neg},
			wantErr: generic.ErrNegativeReturnRate,
		},
		{
			name:    "negative interest",
			doc:     factory.PlanJSON{CarInterestRate: -1},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative term",
			doc:     factory.PlanJSON{CarTermMonths: -12},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative purchase price",
			doc:     factory.PlanJSON{CarPurchasePrice: -30000},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative down payment",
			doc:     factory.PlanJSON{FinancingStartMonth: "2025-01", CarTermMonths: 12, CarDownPayment: -5000},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative final payment",
			doc:     factory.PlanJSON{CarFinalPayment: -1},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative insurance",
			doc:     factory.PlanJSON{CarInsuranceMonthly: -60},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative fuel",
			doc:     factory.PlanJSON{CarFuelMonthly: -1},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative maintenance",
			doc:     factory.PlanJSON{CarMaintenanceMonthly: -1},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "negative tax",
			doc:     factory.PlanJSON{CarTaxMonthly: -1},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "term above cap",
			doc:     factory.PlanJSON{FinancingStartMonth: "2025-01", CarTermMonths: longterm.MaxTermMonths + 1},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "term near int max",
			doc:     factory.PlanJSON{FinancingStartMonth: "2025-01", CarTermMonths: math.MaxInt},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "term runs past last month",
			doc:     factory.PlanJSON{FinancingStartMonth: "9999-06", CarTermMonths: 12},
			wantErr: generic.ErrValidation,
		},
		{
			name:    "bad financing month",
			doc:     factory.PlanJSON{FinancingStartMonth: "April"},
			wantErr: generic.ErrInvalidMonth,
		},
		{
			name: "bad period month",
			doc: factory.PlanJSON{Periods: []factory.PeriodJSON{
				{StartMonth: "2025-01", EndMonth: "2025-02"},
				{StartMonth: "2025-13", EndMonth: "2026-01"},
			}},
			wantErr:   generic.ErrInvalidMonth,
			wantIndex: 2,
		},
		{
			name: "inverted period",
			doc: factory.PlanJSON{Periods: []factory.PeriodJSON{
				{StartMonth: "2025-06", EndMonth: "2025-01"},
			}},
			wantErr:   generic.ErrInvalidPeriod,
			wantIndex: 1,
		},
		{
			name: "duplicate template id",
			doc: factory.PlanJSON{Periods: []factory.PeriodJSON{
				{StartMonth: "2025-01", EndMonth: "2025-12", ExpenseTemplateIDs: []int64{3, 4, 3}},
			}},
			wantErr:   generic.ErrDuplicateTemplateID,
			wantIndex: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory.NewPlanFactory().BuildPlan(tc.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, generic.IsClientError(err))

			if tc.wantIndex > 0 {
				var pe *generic.PeriodError
				require.True(t, errors.As(err, &pe))
				assert.Equal(t, tc.wantIndex, pe.Index)
			}
		})
	}
}

func TestBuildPlan_FinancingTermBounds(t *testing.T) {
	// GIVEN: A financing whose term is exactly the cap
	// THEN: It is accepted and active, with the window ending on the cap

	plan, err := factory.NewPlanFactory().BuildPlan(factory.PlanJSON{
		FinancingStartMonth: "2025-01",
		CarPurchasePrice:    12000,
		CarTermMonths:       longterm.MaxTermMonths,
	})
	require.NoError(t, err)
	require.True(t, plan.Financing.Active())
	window, ok := plan.Financing.Window()
	require.True(t, ok)
	assert.Equal(t, "2124-12", window.End.String())

	// GIVEN: A financing ending in the last expressible month
	// THEN: It is accepted
	plan, err = factory.NewPlanFactory().BuildPlan(factory.PlanJSON{
		FinancingStartMonth: "9999-01",
		CarTermMonths:       12,
	})
	require.NoError(t, err)
	assert.True(t, plan.Financing.Active())

	// GIVEN: An oversized term
	// THEN: The error names the field
	_, err = factory.NewPlanFactory().BuildPlan(factory.PlanJSON{
		FinancingStartMonth: "2025-01",
		CarTermMonths:       math.MaxInt,
	})
	var ve *generic.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "car_term_months", ve.Field)
}

func TestParsePlan_Malformed(t *testing.T) {
	_, err := factory.NewPlanFactory().ParsePlan([]byte(`{"periods": 3}`))
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewPlanFactory()
	rate := 6.0
	in := factory.PlanJSON{
		ID:                  7,
		Name:                "Round",
		StartingBalance:     100.5,
		SavingsReturnRate:   &rate,
		FinancingStartMonth: "2025-03",
		CarTermMonths:       24,
		CarPurchasePrice:    12000,
		Periods: []factory.PeriodJSON{
			{StartMonth: "2025-01", EndMonth: "2025-06", IncomeTemplateIDs: []int64{1}},
		},
	}

	rec, err := f.FromJSON(in)
	require.NoError(t, err)
	out := f.ToJSON(rec)

	assert.Equal(t, int64(7), out.ID)
	assert.Equal(t, 100.5, out.StartingBalance)
	assert.Equal(t, 6.0, *out.SavingsReturnRate)
	assert.Equal(t, "2025-03", out.FinancingStartMonth)
	assert.Equal(t, 12000.0, out.CarPurchasePrice)
	require.Len(t, out.Periods, 1)
	assert.Equal(t, "2025-06", out.Periods[0].EndMonth)
	assert.Equal(t, []int64{1}, out.Periods[0].IncomeTemplateIDs)
	assert.Equal(t, []int64{}, out.Periods[0].SavingTemplateIDs)
}

// =============================================================================
// SCENARIO FILES
// =============================================================================

const scenarioYAML = `
name: Quarter
incomes:
  - {id: 1, name: Salary, amount: 3000}
expenses:
  - {id: 1, name: Rent, amount: 1000}
  - {id: 2, name: Insurance, amount: 600, is_annual_payment: true, annual_month: 3}
income_templates:
  - {id: 1, name: Job, entry_ids: [1]}
expense_templates:
  - {id: 1, name: Flat, entry_ids: [1]}
  - {id: 2, name: Insurance, entry_ids: [2]}
plan:
  starting_balance: 500
  savings_return_rate: .nan
  periods:
    - start_month: "2025-01"
      end_month: "2025-03"
      income_template_ids: [1]
      expense_template_ids: [1]
`

const scenarioTOML = `
name = "Quarter"

[[incomes]]
id = 1
name = "Salary"
amount = 3000.0

[[expenses]]
id = 1
name = "Rent"
amount = 1000.0

[[income_templates]]
id = 1
name = "Job"
entry_ids = [1]

[[expense_templates]]
id = 1
name = "Flat"
entry_ids = [1]

[plan]
starting_balance = 500.0

[[plan.periods]]
start_month = "2025-01"
end_month = "2025-03"
income_template_ids = [1]
expense_template_ids = [1]
`

const scenarioJSON = `{
	"name": "Quarter",
	"incomes": [{"id": 1, "name": "Salary", "amount": 3000}],
	"expenses": [{"id": 1, "name": "Rent", "amount": 1000}],
	"income_templates": [{"id": 1, "name": "Job", "entry_ids": [1]}],
	"expense_templates": [{"id": 1, "name": "Flat", "entry_ids": [1]}],
	"plan": {
		"starting_balance": 500,
		"periods": [{"start_month": "2025-01", "end_month": "2025-03", "income_template_ids": [1], "expense_template_ids": [1]}]
	}
}`

func TestLoadScenario_AllFormats(t *testing.T) {
	// GIVEN: The same quarter scenario in three formats
	// WHEN: Loading each file and projecting
	// THEN: Cash balances are 2500, 4500, 6500 for every format

	dir := t.TempDir()
	files := map[string]string{
		"quarter.yaml": scenarioYAML,
		"quarter.toml": scenarioTOML,
		"quarter.json": scenarioJSON,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			sc, err := factory.NewPlanFactory().LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, "Quarter", sc.Name)

			proj, err := longterm.Project(sc.Input)
			require.NoError(t, err)
			require.Len(t, proj.Rows, 3)

			want := []int64{2500, 4500, 6500}
			for i, row := range proj.Rows {
				assert.True(t, decimal.NewFromInt(want[i]).Equal(row.CashBalance), "%s: %s", row.Month, row.CashBalance)
			}
		})
	}
}

func TestParseScenario_NaNCoercedToZero(t *testing.T) {
	sc, err := factory.NewPlanFactory().ParseScenario([]byte(scenarioYAML), factory.FormatYAML)
	require.NoError(t, err)
	assert.True(t, sc.Input.Plan.SavingsReturnRatePercent.IsZero())
}

func TestParseScenario_AnnualExpenseKept(t *testing.T) {
	sc, err := factory.NewPlanFactory().ParseScenario([]byte(scenarioYAML), factory.FormatYAML)
	require.NoError(t, err)

	expenses := sc.Input.Entries[generic.KindExpense]
	require.Len(t, expenses, 2)
	assert.True(t, expenses[1].IsAnnualPayment)
	assert.Equal(t, time.March, expenses[1].AnnualMonth)
	assert.Equal(t, generic.DefaultCategory, expenses[0].Category)
}

func TestParseScenario_DuplicateEntryID(t *testing.T) {
	doc := `{"incomes": [{"id": 1, "name": "A", "amount": 1}, {"id": 1, "name": "B", "amount": 2}]}`
	_, err := factory.NewPlanFactory().ParseScenario([]byte(doc), factory.FormatJSON)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestParseScenario_InvalidEntry(t *testing.T) {
	doc := `{"expenses": [{"id": 1, "name": "Insurance", "amount": 600, "is_annual_payment": true}]}`
	_, err := factory.NewPlanFactory().ParseScenario([]byte(doc), factory.FormatJSON)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]factory.Format{
		"a.json": factory.FormatJSON,
		"a.YML":  factory.FormatYAML,
		"a.yaml": factory.FormatYAML,
		"a.toml": factory.FormatTOML,
	} {
		got, err := factory.FormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := factory.FormatFromPath("a.xml")
	assert.Error(t, err)
}
