package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/financeflow/export"
	"github.com/warp/financeflow/factory"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/logging"
	"github.com/warp/financeflow/longterm"
)

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all plans, newest first.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(h.Plans, p, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlan creates a plan. Periods are optional here; when present they
// are validated and their template ids must exist.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req factory.PlanJSON
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := h.Plans.FromJSON(req)
	if err != nil {
		h.fail(w, r, "Invalid plan", err)
		return
	}
	if rec.Name == "" {
		h.fail(w, r, "Invalid plan", &generic.ValidationError{Field: "name", Message: "is required"})
		return
	}

	ctx := r.Context()
	if len(rec.Periods) > 0 {
		if err := h.checkTemplates(ctx, rec.Periods); err != nil {
			h.fail(w, r, "Invalid plan", err)
			return
		}
	}

	created, err := h.Store.CreatePlan(ctx, rec)
	if err != nil {
		h.fail(w, r, "Failed to create plan", err)
		return
	}
	h.log.InfoContext(ctx, "plan created", logging.FieldPlanID, created.ID, logging.FieldOperation, "create")
	writeJSON(w, http.StatusCreated, toPlanDTO(h.Plans, created, nil))
}

// GetPlan returns a plan with its periods sorted by start month and a
// readable label per period.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	in, rec, err := h.loadInput(r.Context(), longterm.PlanID(id))
	if err != nil {
		h.fail(w, r, "Failed to get plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(h.Plans, *rec, longterm.PeriodLabels(in)))
}

// DeletePlan deletes a plan and its periods.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeletePlan(r.Context(), longterm.PlanID(id)); err != nil {
		h.fail(w, r, "Failed to delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplacePeriods overwrites a plan's periods together with its balances,
// return rate and financing. At least one period is required, every
// referenced template must exist, and a template may appear only once per
// list. An empty name keeps the stored name and description.
func (h *Handler) ReplacePeriods(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	existing, err := h.Store.GetPlan(ctx, longterm.PlanID(id))
	if err != nil {
		h.fail(w, r, "Failed to get plan", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Plan not found", nil)
		return
	}

	var req factory.PlanJSON
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.Plans.FromJSON(req)
	if err != nil {
		h.fail(w, r, "Invalid periods", err)
		return
	}
	if err := longterm.ValidatePeriods(rec.Periods); err != nil {
		h.fail(w, r, "Invalid periods", err)
		return
	}
	if err := h.checkTemplates(ctx, rec.Periods); err != nil {
		h.fail(w, r, "Invalid periods", err)
		return
	}

	rec.ID = existing.ID
	if _, err := h.Store.UpdatePlan(ctx, rec); err != nil {
		h.fail(w, r, "Failed to update plan", err)
		return
	}

	in, updated, err := h.loadInput(ctx, existing.ID)
	if err != nil {
		h.fail(w, r, "Failed to get plan", err)
		return
	}
	h.log.InfoContext(ctx, "plan periods replaced",
		logging.FieldPlanID, existing.ID, logging.FieldOperation, "update", "periods", len(rec.Periods))
	writeJSON(w, http.StatusOK, toPlanDTO(h.Plans, *updated, longterm.PeriodLabels(in)))
}

// checkTemplates reports template ids referenced by periods that do not
// exist, as a MissingError naming the first kind with gaps.
func (h *Handler) checkTemplates(ctx context.Context, periods []longterm.Period) error {
	_, templates, err := h.loadCollections(ctx)
	if err != nil {
		return err
	}
	missing := longterm.MissingTemplates(periods, templates)
	for _, kind := range generic.Kinds {
		ids := missing[kind]
		if len(ids) == 0 {
			continue
		}
		out := make([]int64, len(ids))
		for i, id := range ids {
			out[i] = int64(id)
		}
		return &generic.MissingError{What: string(kind) + " templates", IDs: out}
	}
	return nil
}

// =============================================================================
// PROJECTION HANDLERS
// =============================================================================

// ProjectPlan projects a stored plan. The format query parameter selects
// json (default), csv, pdf or table.
func (h *Handler) ProjectPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	format, ok := queryFormat(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	in, rec, err := h.loadInput(ctx, longterm.PlanID(id))
	if err != nil {
		h.fail(w, r, "Failed to load plan", err)
		return
	}

	start := time.Now()
	proj, err := longterm.Project(in)
	if err != nil {
		args := []any{logging.FieldPlanID, rec.ID, logging.FieldError, err}
		var pe *generic.PeriodError
		if errors.As(err, &pe) {
			args = append(args, logging.FieldPeriodIndex, pe.Index)
		}
		h.log.InfoContext(ctx, "projection rejected", args...)
		h.fail(w, r, "Projection failed", err)
		return
	}
	h.log.DebugContext(ctx, "projection computed",
		logging.FieldPlanID, rec.ID, logging.FieldMonths, len(proj.Rows), "elapsed", time.Since(start))

	report := export.Report{
		Title:       rec.Name,
		Description: rec.Description,
		Periods:     longterm.PeriodLabels(in),
		Projection:  proj,
		GeneratedAt: time.Now(),
	}
	h.writeReport(w, r, format, int64(rec.ID), report)
}

// ProjectDraft projects a plan sent in the body against the stored entries
// and templates without saving anything.
func (h *Handler) ProjectDraft(w http.ResponseWriter, r *http.Request) {
	format, ok := queryFormat(w, r)
	if !ok {
		return
	}
	var req factory.PlanJSON
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.Plans.FromJSON(req)
	if err != nil {
		h.fail(w, r, "Invalid plan", err)
		return
	}

	entries, templates, err := h.loadCollections(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to load collections", err)
		return
	}
	in := longterm.Input{Plan: rec.Plan, Entries: entries, Templates: templates}
	proj, err := longterm.Project(in)
	if err != nil {
		h.fail(w, r, "Projection failed", err)
		return
	}

	h.writeReport(w, r, format, 0, export.Report{
		Title:       rec.Name,
		Description: rec.Description,
		Periods:     longterm.PeriodLabels(in),
		Projection:  proj,
		GeneratedAt: time.Now(),
	})
}

func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, format export.Format, planID int64, report export.Report) {
	if format == export.FormatJSON {
		writeJSON(w, http.StatusOK, ProjectionDTO{PlanID: planID, Document: export.NewDocument(report)})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != export.FormatTable {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s.%s"`, export.Slug(report.Title), format.Extension()))
	}
	w.WriteHeader(http.StatusOK)
	if err := export.Write(w, format, report); err != nil {
		h.log.ErrorContext(r.Context(), "failed to write report", logging.FieldError, err, "format", string(format))
	}
}

func queryFormat(w http.ResponseWriter, r *http.Request) (export.Format, bool) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return export.FormatJSON, true
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return "", false
	}
	return format, true
}

// =============================================================================
// SNAPSHOT LOADING
// =============================================================================

// loadCollections fetches every entry and template collection concurrently.
func (h *Handler) loadCollections(ctx context.Context) (longterm.Entries, longterm.Templates, error) {
	entries := make([][]generic.Entry, len(generic.Kinds))
	templates := make([][]generic.Template, len(generic.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range generic.Kinds {
		i, kind := i, kind
		g.Go(func() error {
			list, err := h.Store.ListEntries(gctx, kind)
			if err != nil {
				return fmt.Errorf("list %s entries: %w", kind, err)
			}
			entries[i] = list
			return nil
		})
		g.Go(func() error {
			list, err := h.Store.ListTemplates(gctx, kind)
			if err != nil {
				return fmt.Errorf("list %s templates: %w", kind, err)
			}
			templates[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	outEntries := make(longterm.Entries, len(generic.Kinds))
	outTemplates := make(longterm.Templates, len(generic.Kinds))
	for i, kind := range generic.Kinds {
		outEntries[kind] = entries[i]
		outTemplates[kind] = templates[i]
	}
	return outEntries, outTemplates, nil
}

// loadInput fetches a plan and every collection concurrently and returns
// the engine input. A missing plan is ErrNotFound.
func (h *Handler) loadInput(ctx context.Context, id longterm.PlanID) (longterm.Input, *longterm.PlanRecord, error) {
	var (
		rec       *longterm.PlanRecord
		entries   longterm.Entries
		templates longterm.Templates
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rec, err = h.Store.GetPlan(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		entries, templates, err = h.loadCollections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return longterm.Input{}, nil, err
	}
	if rec == nil {
		return longterm.Input{}, nil, fmt.Errorf("plan %d: %w", id, generic.ErrNotFound)
	}

	return longterm.Input{Plan: rec.Plan, Entries: entries, Templates: templates}, rec, nil
}
