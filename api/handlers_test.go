/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Entry and template collections (create, list, delete, validation)
- Plan lifecycle (create, replace periods, delete)
- Projection endpoints (JSON and file formats, draft plans)
- Error mapping (400, 404, 422)
*/
package api

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/financeflow/store/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(memory.New(), nil)
	return NewRouter(h, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// seedBasics creates one income, one expense and a template of each, and
// returns the template ids.
func seedBasics(t *testing.T, router http.Handler) (incomeTpl, expenseTpl int64) {
	t.Helper()

	inc := do(t, router, http.MethodPost, "/api/incomes", map[string]any{"name": "Salary", "amount": 3000})
	require.Equal(t, http.StatusCreated, inc.Code, inc.Body.String())
	exp := do(t, router, http.MethodPost, "/api/expenses", map[string]any{"name": "Rent", "amount": 1000})
	require.Equal(t, http.StatusCreated, exp.Code, exp.Body.String())

	it := do(t, router, http.MethodPost, "/api/templates/income", map[string]any{
		"name": "Job", "income_ids": []int64{decode[EntryDTO](t, inc).ID},
	})
	require.Equal(t, http.StatusCreated, it.Code, it.Body.String())
	et := do(t, router, http.MethodPost, "/api/templates/expense", map[string]any{
		"name": "Flat", "entry_ids": []int64{decode[EntryDTO](t, exp).ID},
	})
	require.Equal(t, http.StatusCreated, et.Code, et.Body.String())

	return decode[TemplateDTO](t, it).ID, decode[TemplateDTO](t, et).ID
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestEntries_Lifecycle(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: An expense is created, listed and deleted twice
	// THEN: 201, the list holds it, 204 then 404
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/expenses", map[string]any{
		"name": "Insurance", "amount": 480.5, "category": "insurance",
		"is_annual_payment": true, "annual_month": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[EntryDTO](t, rec)
	assert.Equal(t, "Insurance", created.Name)
	assert.Equal(t, 480.5, created.Amount)
	require.NotNil(t, created.AnnualMonth)
	assert.Equal(t, 3, *created.AnnualMonth)

	list := decode[[]EntryDTO](t, do(t, router, http.MethodGet, "/api/expenses", nil))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	incomes := decode[[]EntryDTO](t, do(t, router, http.MethodGet, "/api/incomes", nil))
	assert.Empty(t, incomes)

	path := "/api/expenses/" + itoa(created.ID)
	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, path, nil).Code)
}

func TestEntries_AnnualFieldsOnlyForExpenses(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/incomes", map[string]any{
		"name": "Bonus", "amount": 100, "is_annual_payment": true, "annual_month": 12,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	e := decode[EntryDTO](t, rec)
	assert.False(t, e.IsAnnualPayment)
	assert.Nil(t, e.AnnualMonth)
	assert.Empty(t, e.Category)
}

func TestEntries_Validation(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"zero amount", map[string]any{"name": "Rent", "amount": 0}, http.StatusUnprocessableEntity},
		{"negative amount", map[string]any{"name": "Rent", "amount": -5}, http.StatusUnprocessableEntity},
		{"blank name", map[string]any{"name": "  ", "amount": 5}, http.StatusUnprocessableEntity},
		{"annual without month", map[string]any{"name": "Tax", "amount": 5, "is_annual_payment": true}, http.StatusUnprocessableEntity},
		{"malformed body", `{"name":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestEntries_InvalidID(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodDelete, "/api/savings/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodDelete, "/api/savings/0", nil).Code)
}

func TestTemplates_MissingEntries(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: A template references entries that do not exist
	// THEN: 404 with the missing ids in details
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/templates/saving", map[string]any{
		"name": "ETF", "saving_ids": []int64{7, 8},
	})
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "not_found", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{7.0, 8.0}, details["missing_ids"])
}

func TestTemplates_ListResolvesEntries(t *testing.T) {
	router := newTestRouter(t)
	seedBasics(t, router)

	list := decode[[]TemplateDTO](t, do(t, router, http.MethodGet, "/api/templates/income", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "income", list[0].Kind)
	require.Len(t, list[0].Entries, 1)
	assert.Equal(t, "Salary", list[0].Entries[0].Name)

	unknown := do(t, router, http.MethodGet, "/api/templates/bonus", nil)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}

func TestTemplates_DeletedEntryIsDropped(t *testing.T) {
	router := newTestRouter(t)
	seedBasics(t, router)

	entries := decode[[]EntryDTO](t, do(t, router, http.MethodGet, "/api/incomes", nil))
	require.Len(t, entries, 1)
	require.Equal(t, http.StatusNoContent,
		do(t, router, http.MethodDelete, "/api/incomes/"+itoa(entries[0].ID), nil).Code)

	list := decode[[]TemplateDTO](t, do(t, router, http.MethodGet, "/api/templates/income", nil))
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Entries)
}

func TestPlans_Lifecycle(t *testing.T) {
	// GIVEN: A job and a flat template
	// WHEN: A plan is created, its periods replaced, and it is projected
	// THEN: Each step reflects the stored state
	router := newTestRouter(t)
	incomeTpl, expenseTpl := seedBasics(t, router)

	rec := do(t, router, http.MethodPost, "/api/longterm/plans", map[string]any{
		"name": "Two months", "starting_balance": 500,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	plan := decode[PlanDTO](t, rec)
	require.NotZero(t, plan.ID)
	require.NotNil(t, plan.SavingsReturnRate)
	assert.Equal(t, 7.0, *plan.SavingsReturnRate)
	assert.Empty(t, plan.Periods)

	base := "/api/longterm/plans/" + itoa(plan.ID)
	rec = do(t, router, http.MethodPut, base+"/periods", map[string]any{
		"starting_balance": 500,
		"periods": []map[string]any{{
			"start_month":          "2025-01",
			"end_month":            "2025-02",
			"income_template_ids":  []int64{incomeTpl},
			"expense_template_ids": []int64{expenseTpl},
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[PlanDTO](t, rec)
	assert.Equal(t, "Two months", updated.Name, "empty name keeps the stored one")
	require.Len(t, updated.Periods, 1)
	assert.Len(t, updated.PeriodLabels, 1)

	rec = do(t, router, http.MethodGet, base+"/projection", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proj := decode[ProjectionDTO](t, rec)
	assert.Equal(t, plan.ID, proj.PlanID)
	require.Len(t, proj.Rows, 2)
	assert.Equal(t, "2025-01", proj.Rows[0].Month)
	assert.Equal(t, 2000.0, proj.Rows[0].Net)
	assert.Equal(t, 2500.0, proj.Rows[0].CashBalance)
	assert.Equal(t, 4500.0, proj.Rows[1].TotalWealth)
	assert.Nil(t, proj.Financing)

	plans := decode[[]PlanDTO](t, do(t, router, http.MethodGet, "/api/longterm/plans", nil))
	require.Len(t, plans, 1)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, base+"/projection", nil).Code)
}

func TestPlans_CreateRequiresName(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/longterm/plans", map[string]any{"starting_balance": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPlans_ReplacePeriodsErrors(t *testing.T) {
	router := newTestRouter(t)
	incomeTpl, _ := seedBasics(t, router)

	plan := decode[PlanDTO](t, do(t, router, http.MethodPost, "/api/longterm/plans", map[string]any{"name": "P"}))
	path := "/api/longterm/plans/" + itoa(plan.ID) + "/periods"

	period := func(start, end string, incomeIDs ...int64) map[string]any {
		return map[string]any{"start_month": start, "end_month": end, "income_template_ids": incomeIDs}
	}

	tests := []struct {
		name        string
		path        string
		body        any
		status      int
		periodIndex float64
	}{
		{"no periods", path, map[string]any{"periods": []any{}}, http.StatusUnprocessableEntity, 0},
		{"inverted second period", path, map[string]any{"periods": []any{
			period("2025-01", "2025-06"), period("2025-09", "2025-07"),
		}}, http.StatusUnprocessableEntity, 2},
		{"duplicate template", path, map[string]any{"periods": []any{
			period("2025-01", "2025-06", incomeTpl, incomeTpl),
		}}, http.StatusUnprocessableEntity, 1},
		{"bad month", path, map[string]any{"periods": []any{period("2025-13", "2026-01")}}, http.StatusUnprocessableEntity, 0},
		{"missing template", path, map[string]any{"periods": []any{
			period("2025-01", "2025-06", 999),
		}}, http.StatusNotFound, 0},
		{"negative return rate", path, map[string]any{"savings_return_rate": -1, "periods": []any{
			period("2025-01", "2025-06"),
		}}, http.StatusUnprocessableEntity, 0},
		{"unknown plan", "/api/longterm/plans/4242/periods", map[string]any{"periods": []any{
			period("2025-01", "2025-06"),
		}}, http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPut, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.periodIndex > 0 {
				details, ok := decode[ErrorResponse](t, rec).Details.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, tt.periodIndex, details["period_index"])
			}
		})
	}
}

func TestProjection_FileFormats(t *testing.T) {
	router := newTestRouter(t)
	incomeTpl, expenseTpl := seedBasics(t, router)

	plan := decode[PlanDTO](t, do(t, router, http.MethodPost, "/api/longterm/plans", map[string]any{
		"name": "Export Me",
		"periods": []map[string]any{{
			"start_month": "2025-01", "end_month": "2025-03",
			"income_template_ids": []int64{incomeTpl}, "expense_template_ids": []int64{expenseTpl},
		}},
	}))
	base := "/api/longterm/plans/" + itoa(plan.ID) + "/projection"

	rec := do(t, router, http.MethodGet, base+"?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "export-me.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 4, "header plus three months")
	assert.True(t, strings.HasPrefix(lines[1], "2025-01,3000.00,1000.00"))

	rec = do(t, router, http.MethodGet, base+"?format=pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = do(t, router, http.MethodGet, base+"?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjection_Draft(t *testing.T) {
	// GIVEN: Stored templates and no stored plan
	// WHEN: A draft plan is projected
	// THEN: Rows come back and nothing is saved
	router := newTestRouter(t)
	incomeTpl, _ := seedBasics(t, router)

	rec := do(t, router, http.MethodPost, "/api/longterm/projection", map[string]any{
		"name": "Draft",
		"periods": []map[string]any{{
			"start_month": "2025-05", "end_month": "2025-05",
			"income_template_ids": []int64{incomeTpl},
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proj := decode[ProjectionDTO](t, rec)
	require.Len(t, proj.Rows, 1)
	assert.Equal(t, 3000.0, proj.Rows[0].CashBalance)
	assert.Zero(t, proj.PlanID)

	plans := decode[[]PlanDTO](t, do(t, router, http.MethodGet, "/api/longterm/plans", nil))
	assert.Empty(t, plans)

	rec = do(t, router, http.MethodPost, "/api/longterm/projection", map[string]any{
		"periods": []map[string]any{{"start_month": "2025-05", "end_month": "2025-01"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	details, ok := decode[ErrorResponse](t, rec).Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, details["period_index"])
}

func TestProjection_DraftRejectsUnboundedFinancing(t *testing.T) {
	// GIVEN: A draft whose car term cannot fit in a calendar
	// WHEN: It is projected
	// THEN: 422 naming the term field, and the server keeps serving
	router := newTestRouter(t)

	for _, term := range []int64{math.MaxInt64, 1 << 31, 1201} {
		rec := do(t, router, http.MethodPost, "/api/longterm/projection", map[string]any{
			"name":                  "Draft",
			"financing_start_month": "2025-01",
			"car_purchase_price":    20000,
			"car_term_months":       term,
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		body := decode[ErrorResponse](t, rec)
		assert.Equal(t, "validation_failed", body.Code)
		assert.Contains(t, body.Error, "car_term_months")
	}

	rec := do(t, router, http.MethodPost, "/api/longterm/projection", map[string]any{
		"name":                  "Draft",
		"financing_start_month": "2025-01",
		"car_down_payment":      -5000,
		"car_term_months":       12,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "car_down_payment")

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/health", nil).Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/nope", nil).Code)
}
