/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built households that populate the store with realistic
  data for demos. Each scenario is a scenario document (YAML or TOML)
  embedded in the binary, the same format the CLI projects from disk.

AVAILABLE SCENARIOS:
  young-professional: Single salary, raise after two years
  family-car:         Two incomes, financed car with balloon payment
  early-retirement:   High savings rate, then drawdown

HOW SCENARIOS WORK:
  1. Reset store (clear all data)
  2. Create entries, remembering the id each one was given
  3. Create templates with the remapped entry ids
  4. Create the plan with the remapped template ids

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "family-car"}

ADDING NEW SCENARIOS:
  Drop a .yaml, .yml, .json or .toml file into scenarios/. The file name
  without extension is the scenario id.

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - factory/scenario.go: Scenario document schema
  - cmd/financeflow: Projects the same documents from the command line
*/
package api

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/warp/financeflow/factory"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/logging"
	"github.com/warp/financeflow/longterm"
)

//go:embed scenarios/*
var scenarioFS embed.FS

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

type embeddedScenario struct {
	dto      ScenarioDTO
	scenario *factory.Scenario
}

// loadScenarios parses every embedded scenario document, sorted by id.
func loadScenarios(pf *factory.PlanFactory) ([]embeddedScenario, error) {
	files, err := fs.ReadDir(scenarioFS, "scenarios")
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}

	var out []embeddedScenario
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		format, err := factory.FormatFromPath(name)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		data, err := scenarioFS.ReadFile(path.Join("scenarios", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario %s: %w", name, err)
		}
		sc, err := pf.ParseScenario(data, format)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		out = append(out, embeddedScenario{
			dto: ScenarioDTO{
				ID:          strings.TrimSuffix(name, path.Ext(name)),
				Name:        sc.Name,
				Description: sc.Description,
				Format:      string(format),
			},
			scenario: sc,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].dto.ID < out[j].dto.ID })
	return out, nil
}

func (h *Handler) findScenario(id string) (*embeddedScenario, error) {
	all, err := loadScenarios(h.Plans)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].dto.ID == id {
			return &all[i], nil
		}
	}
	return nil, nil
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	all, err := loadScenarios(h.Plans)
	if err != nil {
		h.fail(w, r, "Failed to load scenarios", err)
		return
	}
	dtos := make([]ScenarioDTO, len(all))
	for i, s := range all {
		dtos[i] = s.dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	s, err := h.findScenario(current)
	if err != nil || s == nil {
		writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
		return
	}
	writeJSON(w, http.StatusOK, s.dto)
}

// LoadScenario resets the store and seeds it with a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.findScenario(req.ScenarioID)
	if err != nil {
		h.fail(w, r, "Failed to load scenarios", err)
		return
	}
	if s == nil {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("no scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	h.currentScenario = ""
	planID, err := Seed(ctx, h.Store, s.scenario)
	if err != nil {
		h.fail(w, r, "Failed to load scenario", err)
		return
	}
	h.currentScenario = s.dto.ID

	h.log.InfoContext(ctx, "scenario loaded",
		logging.FieldScenario, s.dto.ID, logging.FieldPlanID, planID)
	writeJSON(w, http.StatusOK, LoadScenarioResponse{
		Status:   "loaded",
		Scenario: s.dto.ID,
		PlanID:   int64(planID),
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SEEDING
// =============================================================================

// Seed resets store and writes the scenario's entries, templates and plan.
// Document ids are only references inside the document; the store assigns
// new ids and the references are rewritten to match. Returns the new plan id.
func Seed(ctx context.Context, store longterm.Store, sc *factory.Scenario) (longterm.PlanID, error) {
	if err := store.Reset(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset store: %w", err)
	}

	templateIDs := make(map[generic.Kind]map[generic.TemplateID]generic.TemplateID, len(generic.Kinds))
	for _, kind := range generic.Kinds {
		entryIDs := make(map[generic.EntryID]generic.EntryID)
		for _, e := range sc.Input.Entries[kind] {
			created, err := store.CreateEntry(ctx, kind, e)
			if err != nil {
				return 0, fmt.Errorf("failed to create %s entry %q: %w", kind, e.Name, err)
			}
			entryIDs[e.ID] = created.ID
		}

		templateIDs[kind] = make(map[generic.TemplateID]generic.TemplateID)
		for _, t := range sc.Input.Templates[kind] {
			ids := make([]generic.EntryID, len(t.EntryIDs))
			for i, id := range t.EntryIDs {
				ids[i] = remap(entryIDs, id)
			}
			t.EntryIDs = ids
			created, err := store.CreateTemplate(ctx, kind, t)
			if err != nil {
				return 0, fmt.Errorf("failed to create %s template %q: %w", kind, t.Name, err)
			}
			templateIDs[kind][t.ID] = created.ID
		}
	}

	rec := sc.Plan
	rec.ID = 0
	rec.Periods = make([]longterm.Period, len(sc.Plan.Periods))
	for i, p := range sc.Plan.Periods {
		p.IncomeTemplateIDs = remapAll(templateIDs[generic.KindIncome], p.IncomeTemplateIDs)
		p.ExpenseTemplateIDs = remapAll(templateIDs[generic.KindExpense], p.ExpenseTemplateIDs)
		p.SavingTemplateIDs = remapAll(templateIDs[generic.KindSaving], p.SavingTemplateIDs)
		rec.Periods[i] = p
	}

	created, err := store.CreatePlan(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to create plan: %w", err)
	}
	return created.ID, nil
}

// remap returns the new id for old, or old itself when the document never
// defined it.
func remap[ID comparable](ids map[ID]ID, old ID) ID {
	if id, ok := ids[old]; ok {
		return id
	}
	return old
}

func remapAll[ID comparable](ids map[ID]ID, old []ID) []ID {
	out := make([]ID, len(old))
	for i, id := range old {
		out[i] = remap(ids, id)
	}
	return out
}
