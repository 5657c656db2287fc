// Package storetest holds the behaviour every longterm.Store must share.
// Store packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) longterm.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("EntryLifecycle", func(t *testing.T) { testEntryLifecycle(t, newStore(t)) })
	t.Run("EntryValidation", func(t *testing.T) { testEntryValidation(t, newStore(t)) })
	t.Run("TemplateRequiresEntries", func(t *testing.T) { testTemplateRequiresEntries(t, newStore(t)) })
	t.Run("EntryDeleteCascades", func(t *testing.T) { testEntryDeleteCascades(t, newStore(t)) })
	t.Run("PlanLifecycle", func(t *testing.T) { testPlanLifecycle(t, newStore(t)) })
	t.Run("PlanNotFound", func(t *testing.T) { testPlanNotFound(t, newStore(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, newStore(t)) })
	t.Run("ProjectFromStore", func(t *testing.T) { testProjectFromStore(t, newStore(t)) })
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testEntryLifecycle(t *testing.T, s longterm.Store) {
	ctx := context.Background()

	rent, err := s.CreateEntry(ctx, generic.KindExpense, generic.Entry{Name: "Rent", Amount: dec("950.50")})
	require.NoError(t, err)
	assert.NotZero(t, rent.ID)
	assert.False(t, rent.CreatedAt.IsZero())
	assert.Equal(t, generic.DefaultCategory, rent.Category)

	ins, err := s.CreateEntry(ctx, generic.KindExpense, generic.Entry{
		Name: "Insurance", Amount: dec("600"), Category: "insurance",
		IsAnnualPayment: true, AnnualMonth: time.March,
	})
	require.NoError(t, err)

	list, err := s.ListEntries(ctx, generic.KindExpense)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ins.ID, list[0].ID, "newest first")
	assert.True(t, list[0].IsAnnualPayment)
	assert.Equal(t, time.March, list[0].AnnualMonth)
	assert.True(t, dec("950.50").Equal(list[1].Amount))

	incomes, err := s.ListEntries(ctx, generic.KindIncome)
	require.NoError(t, err)
	assert.Empty(t, incomes)

	require.NoError(t, s.DeleteEntry(ctx, generic.KindExpense, rent.ID))
	assert.ErrorIs(t, s.DeleteEntry(ctx, generic.KindExpense, rent.ID), generic.ErrNotFound)

	list, err = s.ListEntries(ctx, generic.KindExpense)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testEntryValidation(t *testing.T, s longterm.Store) {
	ctx := context.Background()

	_, err := s.CreateEntry(ctx, generic.KindIncome, generic.Entry{Name: "Salary", Amount: dec("0")})
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	_, err = s.CreateEntry(ctx, generic.KindExpense, generic.Entry{Name: "Tax", Amount: dec("10"), IsAnnualPayment: true})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func testTemplateRequiresEntries(t *testing.T, s longterm.Store) {
	ctx := context.Background()

	salary, err := s.CreateEntry(ctx, generic.KindIncome, generic.Entry{Name: "Salary", Amount: dec("3000")})
	require.NoError(t, err)

	_, err = s.CreateTemplate(ctx, generic.KindIncome, generic.Template{Name: "Job", EntryIDs: []generic.EntryID{salary.ID, 9999}})
	require.Error(t, err)
	assert.True(t, generic.IsNotFound(err))

	// An income id is unknown to the expense collection.
	_, err = s.CreateTemplate(ctx, generic.KindExpense, generic.Template{Name: "Wrong kind", EntryIDs: []generic.EntryID{salary.ID}})
	assert.True(t, generic.IsNotFound(err))

	tpl, err := s.CreateTemplate(ctx, generic.KindIncome, generic.Template{Name: "Job", Description: "day job", EntryIDs: []generic.EntryID{salary.ID, salary.ID}})
	require.NoError(t, err)
	assert.Equal(t, []generic.EntryID{salary.ID}, tpl.EntryIDs)

	list, err := s.ListTemplates(ctx, generic.KindIncome)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Job", list[0].Name)
	assert.Equal(t, "day job", list[0].Description)

	require.NoError(t, s.DeleteTemplate(ctx, generic.KindIncome, tpl.ID))
	assert.ErrorIs(t, s.DeleteTemplate(ctx, generic.KindIncome, tpl.ID), generic.ErrNotFound)
}

func testEntryDeleteCascades(t *testing.T, s longterm.Store) {
	ctx := context.Background()

	a, err := s.CreateEntry(ctx, generic.KindSaving, generic.Entry{Name: "ETF", Amount: dec("200")})
	require.NoError(t, err)
	b, err := s.CreateEntry(ctx, generic.KindSaving, generic.Entry{Name: "Bonds", Amount: dec("100")})
	require.NoError(t, err)
	_, err = s.CreateTemplate(ctx, generic.KindSaving, generic.Template{Name: "Invest", EntryIDs: []generic.EntryID{a.ID, b.ID}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntry(ctx, generic.KindSaving, a.ID))

	list, err := s.ListTemplates(ctx, generic.KindSaving)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []generic.EntryID{b.ID}, list[0].EntryIDs)
}

func samplePlan() longterm.PlanRecord {
	return longterm.PlanRecord{
		Name:        "Family",
		Description: "ten years",
		Plan: longterm.Plan{
			StartingCashBalance:      dec("2500.25"),
			StartingSavingBalance:    dec("10000"),
			SavingsReturnRatePercent: dec("6.5"),
			Periods: []longterm.Period{
				{Start: generic.NewMonth(2026, time.January), End: generic.NewMonth(2030, time.December), IncomeTemplateIDs: []generic.TemplateID{2}},
				{Start: generic.NewMonth(2025, time.January), End: generic.NewMonth(2025, time.December), IncomeTemplateIDs: []generic.TemplateID{1}, ExpenseTemplateIDs: []generic.TemplateID{3, 4}},
			},
			Financing: &longterm.Financing{
				StartMonth:                generic.NewMonth(2026, time.April),
				PurchasePrice:             dec("32000"),
				DownPayment:               dec("6000"),
				FinalPayment:              dec("8000"),
				TermMonths:                48,
				AnnualInterestRatePercent: dec("4.9"),
				InsuranceMonthly:          dec("65"),
				FuelMonthly:               dec("120"),
				MaintenanceMonthly:        dec("40"),
				TaxMonthly:                dec("15"),
			},
		},
	}
}

func testPlanLifecycle(t *testing.T, s longterm.Store) {
	ctx := context.Background()

	created, err := s.CreatePlan(ctx, samplePlan())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Family", got.Name)
	assert.True(t, dec("2500.25").Equal(got.StartingCashBalance))
	assert.True(t, dec("6.5").Equal(got.SavingsReturnRatePercent))

	require.Len(t, got.Periods, 2)
	assert.Equal(t, generic.NewMonth(2025, time.January), got.Periods[0].Start, "sorted by start month")
	assert.Equal(t, []generic.TemplateID{3, 4}, got.Periods[0].ExpenseTemplateIDs)
	assert.Empty(t, got.Periods[0].SavingTemplateIDs)

	require.NotNil(t, got.Financing)
	assert.Equal(t, generic.NewMonth(2026, time.April), got.Financing.StartMonth)
	assert.Equal(t, 48, got.Financing.TermMonths)
	assert.True(t, dec("4.9").Equal(got.Financing.AnnualInterestRatePercent))
	assert.True(t, dec("15").Equal(got.Financing.TaxMonthly))

	// Replace periods and settings.
	update := *got
	update.StartingCashBalance = dec("100")
	update.Periods = []longterm.Period{{Start: generic.NewMonth(2027, time.June), End: generic.NewMonth(2027, time.June)}}
	update.Financing = &longterm.Financing{}
	_, err = s.UpdatePlan(ctx, update)
	require.NoError(t, err)

	got, err = s.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Periods, 1)
	assert.True(t, dec("100").Equal(got.StartingCashBalance))
	assert.Equal(t, "Family", got.Name)
	assert.False(t, got.Financing.Active())

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	require.NoError(t, s.DeletePlan(ctx, created.ID))
	got, err = s.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testPlanNotFound(t *testing.T, s longterm.Store) {
	ctx := context.Background()

	got, err := s.GetPlan(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.UpdatePlan(ctx, longterm.PlanRecord{ID: 404})
	assert.ErrorIs(t, err, generic.ErrNotFound)
	assert.ErrorIs(t, s.DeletePlan(ctx, 404), generic.ErrNotFound)
}

func testReset(t *testing.T, s longterm.Store) {
	ctx := context.Background()

	e, err := s.CreateEntry(ctx, generic.KindIncome, generic.Entry{Name: "Salary", Amount: dec("1")})
	require.NoError(t, err)
	_, err = s.CreateTemplate(ctx, generic.KindIncome, generic.Template{Name: "Job", EntryIDs: []generic.EntryID{e.ID}})
	require.NoError(t, err)
	_, err = s.CreatePlan(ctx, samplePlan())
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	entries, templates, err := longterm.LoadCollections(ctx, s)
	require.NoError(t, err)
	for _, kind := range generic.Kinds {
		assert.Empty(t, entries[kind])
		assert.Empty(t, templates[kind])
	}
	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func testProjectFromStore(t *testing.T, s longterm.Store) {
	// GIVEN: Salary 3000 and rent 1000 stored with templates, a Jan..Mar plan
	// WHEN: Loading the collections and projecting the stored plan
	// THEN: Cash balances 2500, 4500, 6500

	ctx := context.Background()
	salary, err := s.CreateEntry(ctx, generic.KindIncome, generic.Entry{Name: "Salary", Amount: dec("3000")})
	require.NoError(t, err)
	rent, err := s.CreateEntry(ctx, generic.KindExpense, generic.Entry{Name: "Rent", Amount: dec("1000")})
	require.NoError(t, err)
	job, err := s.CreateTemplate(ctx, generic.KindIncome, generic.Template{Name: "Job", EntryIDs: []generic.EntryID{salary.ID}})
	require.NoError(t, err)
	flat, err := s.CreateTemplate(ctx, generic.KindExpense, generic.Template{Name: "Flat", EntryIDs: []generic.EntryID{rent.ID}})
	require.NoError(t, err)

	rec, err := s.CreatePlan(ctx, longterm.PlanRecord{
		Name: "Quarter",
		Plan: longterm.Plan{
			StartingCashBalance: dec("500"),
			Periods: []longterm.Period{{
				Start:              generic.NewMonth(2025, time.January),
				End:                generic.NewMonth(2025, time.March),
				IncomeTemplateIDs:  []generic.TemplateID{job.ID},
				ExpenseTemplateIDs: []generic.TemplateID{flat.ID},
			}},
		},
	})
	require.NoError(t, err)

	stored, err := s.GetPlan(ctx, rec.ID)
	require.NoError(t, err)
	entries, templates, err := longterm.LoadCollections(ctx, s)
	require.NoError(t, err)

	proj, err := longterm.Project(longterm.Input{Plan: stored.Plan, Entries: entries, Templates: templates})
	require.NoError(t, err)
	require.Len(t, proj.Rows, 3)
	for i, want := range []string{"2500", "4500", "6500"} {
		assert.True(t, dec(want).Equal(proj.Rows[i].CashBalance))
	}
}
