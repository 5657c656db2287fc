/*
handlers.go - HTTP API handlers for the household planner

PURPOSE:
  Exposes the record store and the projection engine via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Entries (one collection per kind):
    GET    /api/incomes                  List incomes, newest first
    POST   /api/incomes                  Create income
    DELETE /api/incomes/{id}             Delete income
    (same for /api/expenses and /api/savings)

  Templates:
    GET    /api/templates/{kind}         List templates with their entries
    POST   /api/templates/{kind}         Create template
    DELETE /api/templates/{kind}/{id}    Delete template

  Plans (plans.go):
    GET    /api/longterm/plans                 List plans
    POST   /api/longterm/plans                 Create plan
    GET    /api/longterm/plans/{id}            Plan with periods
    DELETE /api/longterm/plans/{id}            Delete plan
    PUT    /api/longterm/plans/{id}/periods    Replace periods and settings
    GET    /api/longterm/plans/{id}/projection Project a stored plan (POST too)
    POST   /api/longterm/projection            Project an unsaved plan

  Scenarios (scenarios.go):
    GET    /api/scenarios              List demo scenarios
    GET    /api/scenarios/current      Currently loaded scenario
    POST   /api/scenarios/load         Load a demo scenario
    POST   /api/scenarios/reset        Clear all data

  GET /health

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: record store (SQLite or in-memory)
  - Plans: JSON to Plan conversion
  - log: structured logger

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (store, projection engine)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed request body or path
  - 404: Record not found, unknown template ids
  - 422: Validation errors (period index included when known)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - plans.go: Plan and projection handlers
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/financeflow/factory"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/logging"
	"github.com/warp/financeflow/longterm"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store longterm.Store
	Plans *factory.PlanFactory

	log *logging.Logger

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler with the given store. A nil logger
// discards everything.
func NewHandler(store longterm.Store, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Discard()
	}
	return &Handler{
		Store: store,
		Plans: factory.NewPlanFactory(),
		log:   log.WithComponent(logging.ComponentHTTP),
	}
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns all entries of kind.
func (h *Handler) ListEntries(kind generic.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := h.Store.ListEntries(r.Context(), kind)
		if err != nil {
			h.fail(w, r, "Failed to list entries", err)
			return
		}
		writeJSON(w, http.StatusOK, toEntryDTOs(entries))
	}
}

// CreateEntry creates an entry of kind.
func (h *Handler) CreateEntry(kind generic.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateEntryRequest
		if !decodeBody(w, r, &req) {
			return
		}

		e, err := h.Store.CreateEntry(r.Context(), kind, req.toEntry())
		if err != nil {
			h.fail(w, r, "Failed to create entry", err)
			return
		}
		writeJSON(w, http.StatusCreated, toEntryDTO(e))
	}
}

// DeleteEntry deletes an entry of kind. Templates drop the entry.
func (h *Handler) DeleteEntry(kind generic.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := h.Store.DeleteEntry(r.Context(), kind, generic.EntryID(id)); err != nil {
			h.fail(w, r, "Failed to delete entry", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// =============================================================================
// TEMPLATE HANDLERS
// =============================================================================

// ListTemplates returns all templates of the kind in the path, with their
// entries resolved.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	templates, err := h.Store.ListTemplates(ctx, kind)
	if err != nil {
		h.fail(w, r, "Failed to list templates", err)
		return
	}
	entries, err := h.Store.ListEntries(ctx, kind)
	if err != nil {
		h.fail(w, r, "Failed to list entries", err)
		return
	}

	byID := entriesByID(entries)
	dtos := make([]TemplateDTO, len(templates))
	for i, t := range templates {
		dtos[i] = toTemplateDTO(kind, t, byID)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTemplate creates a template of the kind in the path. Every entry
// id must exist (404 lists the missing ones).
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	var req CreateTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	t := generic.Template{Name: req.Name, Description: req.Description}
	for _, id := range req.ids(kind) {
		t.EntryIDs = append(t.EntryIDs, generic.EntryID(id))
	}

	ctx := r.Context()
	created, err := h.Store.CreateTemplate(ctx, kind, t)
	if err != nil {
		h.fail(w, r, "Failed to create template", err)
		return
	}
	entries, err := h.Store.ListEntries(ctx, kind)
	if err != nil {
		h.fail(w, r, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateDTO(kind, created, entriesByID(entries)))
}

// DeleteTemplate deletes a template. Plans keep the dangling id.
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteTemplate(r.Context(), kind, generic.TemplateID(id)); err != nil {
		h.fail(w, r, "Failed to delete template", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports that the server is up.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps a domain error to a status code and writes it. Unexpected
// errors are logged and reported as 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := classify(err)
	resp := ErrorResponse{Error: message, Code: code, Details: err.Error()}

	var pe *generic.PeriodError
	var me *generic.MissingError
	switch {
	case errors.As(err, &me):
		resp.Error = err.Error()
		resp.Details = map[string]any{"missing_ids": me.IDs}
	case errors.As(err, &pe):
		resp.Error = err.Error()
		resp.Details = map[string]any{"period_index": pe.Index}
	case status != http.StatusInternalServerError:
		resp.Error = err.Error()
	}

	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), message,
			logging.FieldRequestID, middleware.GetReqID(r.Context()),
			logging.FieldError, err)
	}
	writeJSON(w, status, resp)
}

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case generic.IsClientError(err):
		return http.StatusUnprocessableEntity, "validation_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeBody decodes the JSON body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func pathKind(w http.ResponseWriter, r *http.Request) (generic.Kind, bool) {
	kind, err := generic.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown template kind", err)
		return "", false
	}
	return kind, true
}

func entriesByID(entries []generic.Entry) map[generic.EntryID]generic.Entry {
	byID := make(map[generic.EntryID]generic.Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	return byID
}
