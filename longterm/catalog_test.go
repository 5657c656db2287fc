package longterm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

func entryNames(entries []generic.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestResolveEntries(t *testing.T) {
	entries := []generic.Entry{entry(1, "Rent", "900"), entry(2, "Power", "80"), entry(3, "Phone", "30")}
	templates := []generic.Template{
		template(1, "Flat", 1, 2),
		template(2, "Utilities", 2, 3),
		template(3, "Stale", 99, 3),
	}

	cases := []struct {
		name string
		ids  []generic.TemplateID
		want []string
	}{
		{"empty selection", nil, []string{}},
		{"single template", ids(1), []string{"Rent", "Power"}},
		{"shared entry deduplicated", ids(1, 2), []string{"Rent", "Power", "Phone"}},
		{"first-seen order follows id list", ids(2, 1), []string{"Power", "Phone", "Rent"}},
		{"unknown template skipped", ids(42, 1), []string{"Rent", "Power"}},
		{"dangling entry skipped", ids(3), []string{"Phone"}},
		{"repeated template id", ids(1, 1), []string{"Rent", "Power"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := longterm.ResolveEntries(tc.ids, templates, entries)
			assert.Equal(t, tc.want, entryNames(got))
		})
	}
}

func TestCatalog_KindsAreSeparate(t *testing.T) {
	// GIVEN: Income and expense templates sharing id 1
	// THEN: Resolving for one kind never returns entries of the other

	c := longterm.NewCatalog(
		longterm.Entries{
			generic.KindIncome:  {entry(1, "Salary", "3000")},
			generic.KindExpense: {entry(1, "Rent", "900")},
		},
		longterm.Templates{
			generic.KindIncome:  {template(1, "Job", 1)},
			generic.KindExpense: {template(1, "Flat", 1)},
		},
	)

	assert.Equal(t, []string{"Salary"}, entryNames(c.Resolve(generic.KindIncome, ids(1))))
	assert.Equal(t, []string{"Rent"}, entryNames(c.Resolve(generic.KindExpense, ids(1))))
	assert.Empty(t, c.Resolve(generic.KindSaving, ids(1)))
}
