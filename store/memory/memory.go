// Package memory provides an in-memory record store (for testing/dev).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of longterm.Store
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	entries   map[generic.Kind][]generic.Entry
	templates map[generic.Kind][]generic.Template
	plans     []longterm.PlanRecord
	nextID    int64
	now       func() time.Time
}

var _ longterm.Store = (*Memory)(nil)

func New() *Memory {
	m := &Memory{now: func() time.Time { return time.Now().UTC() }}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.entries = make(map[generic.Kind][]generic.Entry, len(generic.Kinds))
	m.templates = make(map[generic.Kind][]generic.Template, len(generic.Kinds))
	m.plans = nil
	m.nextID = 0
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) Close() error { return nil }

// Reset drops every record and restarts ids at 1.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) CreateEntry(_ context.Context, kind generic.Kind, e generic.Entry) (generic.Entry, error) {
	e, err := e.Normalized(kind)
	if err != nil {
		return generic.Entry{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e.ID = generic.EntryID(m.id())
	e.CreatedAt = m.now()
	m.entries[kind] = append(m.entries[kind], e)
	return e, nil
}

// ListEntries returns newest first.
func (m *Memory) ListEntries(_ context.Context, kind generic.Kind) ([]generic.Entry, error) {
	if !kind.Valid() {
		return nil, generic.ErrInvalidKind
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.entries[kind]
	result := make([]generic.Entry, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		result = append(result, list[i])
	}
	return result, nil
}

// DeleteEntry also removes the entry from every template of its kind.
func (m *Memory) DeleteEntry(_ context.Context, kind generic.Kind, id generic.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.entries[kind]
	idx := -1
	for i, e := range list {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return generic.ErrNotFound
	}
	m.entries[kind] = append(list[:idx:idx], list[idx+1:]...)

	for i, t := range m.templates[kind] {
		kept := make([]generic.EntryID, 0, len(t.EntryIDs))
		for _, eid := range t.EntryIDs {
			if eid != id {
				kept = append(kept, eid)
			}
		}
		m.templates[kind][i].EntryIDs = kept
	}
	return nil
}

// =============================================================================
// TEMPLATES
// =============================================================================

func (m *Memory) CreateTemplate(_ context.Context, kind generic.Kind, t generic.Template) (generic.Template, error) {
	if !kind.Valid() {
		return generic.Template{}, generic.ErrInvalidKind
	}
	t, err := t.Normalized()
	if err != nil {
		return generic.Template{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	known := make(map[generic.EntryID]bool, len(m.entries[kind]))
	for _, e := range m.entries[kind] {
		known[e.ID] = true
	}
	var missing []int64
	for _, id := range t.EntryIDs {
		if !known[id] {
			missing = append(missing, int64(id))
		}
	}
	if len(missing) > 0 {
		return generic.Template{}, &generic.MissingError{What: string(kind) + " entries", IDs: missing}
	}

	t.ID = generic.TemplateID(m.id())
	t.CreatedAt = m.now()
	t.EntryIDs = append([]generic.EntryID(nil), t.EntryIDs...)
	m.templates[kind] = append(m.templates[kind], t)
	return copyTemplate(t), nil
}

func (m *Memory) ListTemplates(_ context.Context, kind generic.Kind) ([]generic.Template, error) {
	if !kind.Valid() {
		return nil, generic.ErrInvalidKind
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.templates[kind]
	result := make([]generic.Template, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		result = append(result, copyTemplate(list[i]))
	}
	return result, nil
}

func (m *Memory) DeleteTemplate(_ context.Context, kind generic.Kind, id generic.TemplateID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.templates[kind]
	for i, t := range list {
		if t.ID == id {
			m.templates[kind] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return generic.ErrNotFound
}

func copyTemplate(t generic.Template) generic.Template {
	t.EntryIDs = append([]generic.EntryID(nil), t.EntryIDs...)
	return t
}

// =============================================================================
// PLANS
// =============================================================================

func (m *Memory) CreatePlan(_ context.Context, p longterm.PlanRecord) (longterm.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = copyPlan(p)
	p.ID = longterm.PlanID(m.id())
	p.CreatedAt = m.now()
	m.plans = append(m.plans, p)
	return copyPlan(p), nil
}

func (m *Memory) ListPlans(_ context.Context) ([]longterm.PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]longterm.PlanRecord, 0, len(m.plans))
	for i := len(m.plans) - 1; i >= 0; i-- {
		result = append(result, copyPlan(m.plans[i]))
	}
	return result, nil
}

func (m *Memory) GetPlan(_ context.Context, id longterm.PlanID) (*longterm.PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.plans {
		if p.ID == id {
			cp := copyPlan(p)
			longterm.SortPeriods(cp.Periods)
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdatePlan(_ context.Context, p longterm.PlanRecord) (longterm.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.plans {
		if existing.ID == p.ID {
			p = copyPlan(p)
			p.CreatedAt = existing.CreatedAt
			if p.Name == "" {
				p.Name = existing.Name
				p.Description = existing.Description
			}
			m.plans[i] = p
			return copyPlan(p), nil
		}
	}
	return longterm.PlanRecord{}, generic.ErrNotFound
}

func (m *Memory) DeletePlan(_ context.Context, id longterm.PlanID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, p := range m.plans {
		if p.ID == id {
			m.plans = append(m.plans[:i:i], m.plans[i+1:]...)
			return nil
		}
	}
	return generic.ErrNotFound
}

// copyPlan detaches the record from caller-owned slices and pointers.
func copyPlan(p longterm.PlanRecord) longterm.PlanRecord {
	periods := make([]longterm.Period, len(p.Periods))
	for i, period := range p.Periods {
		period.IncomeTemplateIDs = append([]generic.TemplateID(nil), period.IncomeTemplateIDs...)
		period.ExpenseTemplateIDs = append([]generic.TemplateID(nil), period.ExpenseTemplateIDs...)
		period.SavingTemplateIDs = append([]generic.TemplateID(nil), period.SavingTemplateIDs...)
		periods[i] = period
	}
	p.Periods = periods
	if p.Financing != nil {
		f := *p.Financing
		p.Financing = &f
	}
	return p
}
