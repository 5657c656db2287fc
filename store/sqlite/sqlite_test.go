package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
	"github.com/warp/financeflow/store/sqlite"
	"github.com/warp/financeflow/store/storetest"
)

func newStore(t *testing.T) longterm.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_Conformance(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	// GIVEN: A file database with one plan
	// WHEN: The store is closed and opened again (migrations re-run)
	// THEN: The plan and its exact decimal amounts survive

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "financeflow.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	rec, err := s.CreatePlan(ctx, longterm.PlanRecord{
		Name: "Reopen",
		Plan: longterm.Plan{
			StartingCashBalance:      decimal.RequireFromString("0.10"),
			SavingsReturnRatePercent: decimal.RequireFromString("7"),
			Periods: []longterm.Period{{
				Start: generic.NewMonth(2025, time.January),
				End:   generic.NewMonth(2025, time.June),
			}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetPlan(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0.1", got.StartingCashBalance.String())
	require.Len(t, got.Periods, 1)
	assert.Equal(t, generic.NewMonth(2025, time.June), got.Periods[0].End)
}

func TestSQLite_PeriodTemplatesKeepOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	rec, err := s.CreatePlan(ctx, longterm.PlanRecord{
		Name: "Order",
		Plan: longterm.Plan{Periods: []longterm.Period{{
			Start:             generic.NewMonth(2025, time.January),
			End:               generic.NewMonth(2025, time.January),
			SavingTemplateIDs: []generic.TemplateID{9, 2, 5},
		}}},
	})
	require.NoError(t, err)

	got, err := s.GetPlan(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []generic.TemplateID{9, 2, 5}, got.Periods[0].SavingTemplateIDs)
	assert.Empty(t, got.Periods[0].IncomeTemplateIDs)
}
