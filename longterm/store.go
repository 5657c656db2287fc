package longterm

import (
	"context"
	"sort"

	"github.com/warp/financeflow/generic"
)

// =============================================================================
// PLAN STORE
// =============================================================================

// PlanStore persists long-term plans together with their periods and
// financing.
type PlanStore interface {
	// CreatePlan stores a new plan and returns it with ID and CreatedAt set.
	CreatePlan(ctx context.Context, p PlanRecord) (PlanRecord, error)

	// ListPlans returns all plans, newest first.
	ListPlans(ctx context.Context) ([]PlanRecord, error)

	// GetPlan returns nil, nil if the plan doesn't exist.
	GetPlan(ctx context.Context, id PlanID) (*PlanRecord, error)

	// UpdatePlan replaces the plan's settings, periods and financing.
	// Returns ErrNotFound if the plan doesn't exist.
	UpdatePlan(ctx context.Context, p PlanRecord) (PlanRecord, error)

	// DeletePlan removes a plan. Returns ErrNotFound if it doesn't exist.
	DeletePlan(ctx context.Context, id PlanID) error
}

// Store is everything the application persists.
type Store interface {
	generic.EntryStore
	generic.TemplateStore
	PlanStore

	// Reset removes every record. Used when loading a demo scenario.
	Reset(ctx context.Context) error
	Close() error
}

// =============================================================================
// SNAPSHOT LOADING
// =============================================================================

// LoadCollections fetches every entry and template collection from the
// store into the maps Project consumes. The fetches run sequentially; see
// api.Handler for the concurrent variant.
func LoadCollections(ctx context.Context, s Store) (Entries, Templates, error) {
	entries := make(Entries, len(generic.Kinds))
	templates := make(Templates, len(generic.Kinds))
	for _, kind := range generic.Kinds {
		es, err := s.ListEntries(ctx, kind)
		if err != nil {
			return nil, nil, err
		}
		ts, err := s.ListTemplates(ctx, kind)
		if err != nil {
			return nil, nil, err
		}
		entries[kind] = es
		templates[kind] = ts
	}
	return entries, templates, nil
}

// ValidatePeriods checks periods for a plan update before it is stored:
// at least one period, every range valid, no template listed twice within
// the same kind of a period.
func ValidatePeriods(periods []Period) error {
	if len(periods) == 0 {
		return generic.ErrNoPeriods
	}
	for i, p := range periods {
		if err := p.Window().Validate(); err != nil {
			return &generic.PeriodError{Index: i + 1, Err: err}
		}
		for _, kind := range generic.Kinds {
			seen := make(map[generic.TemplateID]bool)
			for _, id := range p.TemplateIDs(kind) {
				if seen[id] {
					return &generic.PeriodError{Index: i + 1, Err: generic.ErrDuplicateTemplateID}
				}
				seen[id] = true
			}
		}
	}
	return nil
}

// MissingTemplates returns the template ids referenced by periods that are
// not in templates, per kind, in first-seen order.
func MissingTemplates(periods []Period, templates Templates) map[generic.Kind][]generic.TemplateID {
	known := make(map[generic.Kind]map[generic.TemplateID]bool, len(generic.Kinds))
	for _, kind := range generic.Kinds {
		known[kind] = make(map[generic.TemplateID]bool)
		for _, t := range templates[kind] {
			known[kind][t.ID] = true
		}
	}
	missing := make(map[generic.Kind][]generic.TemplateID)
	for _, p := range periods {
		for _, kind := range generic.Kinds {
			for _, id := range p.TemplateIDs(kind) {
				if !known[kind][id] {
					known[kind][id] = true
					missing[kind] = append(missing[kind], id)
				}
			}
		}
	}
	return missing
}

// SortPeriods orders periods by start month, keeping the stored order for
// equal starts.
func SortPeriods(periods []Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].Start.Before(periods[j].Start)
	})
}
