/*
store.go - Persistence interfaces for entries and templates

PURPOSE:
  Defines the interface between the API and the record store for the two
  collections every plan draws from. The projection engine never sees a
  store: callers fetch snapshots through these interfaces first and hand
  the engine plain slices.

KEY INTERFACES:
  EntryStore:    income/expense/saving records (create, list, delete)
  TemplateStore: named groups of entry ids per kind (create, list, delete)

  Plans are stored through longterm.PlanStore.

DELETION:
  Deleting an entry removes it from every template that referenced it.
  Deleting a template leaves plans that point at it untouched; the
  resolver treats the dangling id as contributing nothing.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for tests and demos

SEE ALSO:
  - longterm/store.go: PlanStore and the combined Store
*/
package generic

import "context"

// EntryStore persists entries of every kind.
type EntryStore interface {
	// CreateEntry stores e and returns it with ID and CreatedAt set.
	CreateEntry(ctx context.Context, kind Kind, e Entry) (Entry, error)

	// ListEntries returns all entries of a kind, newest first.
	ListEntries(ctx context.Context, kind Kind) ([]Entry, error)

	// DeleteEntry removes an entry. Returns ErrNotFound if it doesn't exist.
	DeleteEntry(ctx context.Context, kind Kind, id EntryID) error
}

// TemplateStore persists templates of every kind.
type TemplateStore interface {
	// CreateTemplate stores t. Every referenced entry must exist
	// (MissingError otherwise).
	CreateTemplate(ctx context.Context, kind Kind, t Template) (Template, error)

	// ListTemplates returns all templates of a kind, newest first.
	ListTemplates(ctx context.Context, kind Kind) ([]Template, error)

	// DeleteTemplate removes a template. Returns ErrNotFound if it doesn't exist.
	DeleteTemplate(ctx context.Context, kind Kind, id TemplateID) error
}
