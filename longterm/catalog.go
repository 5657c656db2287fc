package longterm

import (
	"fmt"
	"strings"

	"github.com/warp/financeflow/generic"
)

// =============================================================================
// CATALOG - By-id index over the input collections
// =============================================================================

// Catalog indexes entries and templates by id, per kind. It is built once
// per projection run and only read afterwards.
type Catalog struct {
	entries   map[generic.Kind]map[generic.EntryID]generic.Entry
	templates map[generic.Kind]map[generic.TemplateID]generic.Template
}

func NewCatalog(entries Entries, templates Templates) *Catalog {
	c := &Catalog{
		entries:   make(map[generic.Kind]map[generic.EntryID]generic.Entry, len(generic.Kinds)),
		templates: make(map[generic.Kind]map[generic.TemplateID]generic.Template, len(generic.Kinds)),
	}
	for _, kind := range generic.Kinds {
		c.entries[kind] = indexEntries(entries[kind])
		c.templates[kind] = indexTemplates(templates[kind])
	}
	return c
}

func indexEntries(list []generic.Entry) map[generic.EntryID]generic.Entry {
	m := make(map[generic.EntryID]generic.Entry, len(list))
	for _, e := range list {
		m[e.ID] = e
	}
	return m
}

func indexTemplates(list []generic.Template) map[generic.TemplateID]generic.Template {
	m := make(map[generic.TemplateID]generic.Template, len(list))
	for _, t := range list {
		m[t.ID] = t
	}
	return m
}

// Template looks up a template of the given kind.
func (c *Catalog) Template(kind generic.Kind, id generic.TemplateID) (generic.Template, bool) {
	t, ok := c.templates[kind][id]
	return t, ok
}

// Resolve expands template ids into the entries they reference.
//
// Order is first-seen across the id list; an entry referenced by several
// selected templates appears once. Unknown template ids and dangling entry
// ids are skipped.
func (c *Catalog) Resolve(kind generic.Kind, templateIDs []generic.TemplateID) []generic.Entry {
	return resolve(templateIDs, c.templates[kind], c.entries[kind])
}

// ResolveEntries is the standalone form of Catalog.Resolve for one kind.
func ResolveEntries(templateIDs []generic.TemplateID, templates []generic.Template, entries []generic.Entry) []generic.Entry {
	return resolve(templateIDs, indexTemplates(templates), indexEntries(entries))
}

func resolve(templateIDs []generic.TemplateID, templates map[generic.TemplateID]generic.Template, entries map[generic.EntryID]generic.Entry) []generic.Entry {
	if len(templateIDs) == 0 {
		return nil
	}
	seen := make(map[generic.EntryID]bool)
	var out []generic.Entry
	for _, tid := range templateIDs {
		t, ok := templates[tid]
		if !ok {
			continue
		}
		for _, eid := range t.EntryIDs {
			if seen[eid] {
				continue
			}
			e, ok := entries[eid]
			if !ok {
				continue
			}
			seen[eid] = true
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// PERIOD LABELS
// =============================================================================

// Describe renders a one-line summary of period i (0-based), e.g.
// "#1: 2025-01 → 2025-12 • Income: Salary • Expense: Flat, Car • Saving: (none)".
func (c *Catalog) Describe(i int, p Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d: %s", i+1, p.Window())
	for _, kind := range generic.Kinds {
		fmt.Fprintf(&b, " • %s: %s", kindLabel(kind), c.templateNames(kind, p.TemplateIDs(kind)))
	}
	return b.String()
}

// DescribeAll labels every period of a plan.
func (c *Catalog) DescribeAll(periods []Period) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = c.Describe(i, p)
	}
	return out
}

func (c *Catalog) templateNames(kind generic.Kind, ids []generic.TemplateID) string {
	if len(ids) == 0 {
		return "(none)"
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if t, ok := c.Template(kind, id); ok {
			names = append(names, t.Name)
		} else {
			names = append(names, "(missing)")
		}
	}
	return strings.Join(names, ", ")
}

func kindLabel(kind generic.Kind) string {
	switch kind {
	case generic.KindIncome:
		return "Income"
	case generic.KindExpense:
		return "Expense"
	default:
		return "Saving"
	}
}
