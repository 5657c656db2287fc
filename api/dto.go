/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract. Field names
  are snake_case; months are "YYYY-MM"; amounts are float64 rounded to
  cents on the way out and converted to decimal on the way in.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Entries:
    EntryDTO, CreateEntryRequest

  Templates:
    TemplateDTO, CreateTemplateRequest

  Plans:
    PlanDTO (wraps factory.PlanJSON)

  Projection:
    ProjectionDTO (wraps export.Document)

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by generic.Entry.Normalized, generic.Template.Normalized
  and the plan factory, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanJSON type
  - export/json.go: Projection document
*/
package api

import (
	"time"

	"github.com/warp/financeflow/export"
	"github.com/warp/financeflow/factory"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EntryDTO represents an income, expense or saving in API responses.
type EntryDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description,omitempty"`
	Category        string  `json:"category,omitempty"`
	IsAnnualPayment bool    `json:"is_annual_payment"`
	AnnualMonth     *int    `json:"annual_month"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// CreateEntryRequest is the request to create an entry. Annual fields are
// only kept for expenses.
type CreateEntryRequest struct {
	Name            string  `json:"name"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	IsAnnualPayment bool    `json:"is_annual_payment"`
	AnnualMonth     *int    `json:"annual_month"`
}

// TemplateDTO represents a template with its resolved entries.
type TemplateDTO struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	EntryIDs    []int64    `json:"entry_ids"`
	Entries     []EntryDTO `json:"entries"`
	CreatedAt   string     `json:"created_at,omitempty"`
}

// CreateTemplateRequest is the request to create a template. The entry ids
// may be sent as entry_ids or under the kind-specific key.
type CreateTemplateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	EntryIDs    []int64 `json:"entry_ids"`
	IncomeIDs   []int64 `json:"income_ids"`
	ExpenseIDs  []int64 `json:"expense_ids"`
	SavingIDs   []int64 `json:"saving_ids"`
}

// ids returns the entry ids for kind.
func (r CreateTemplateRequest) ids(kind generic.Kind) []int64 {
	ids := append([]int64(nil), r.EntryIDs...)
	switch kind {
	case generic.KindIncome:
		ids = append(ids, r.IncomeIDs...)
	case generic.KindExpense:
		ids = append(ids, r.ExpenseIDs...)
	case generic.KindSaving:
		ids = append(ids, r.SavingIDs...)
	}
	return ids
}

// PlanDTO represents a plan in API responses.
type PlanDTO struct {
	factory.PlanJSON
	PeriodLabels []string `json:"period_labels,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// ProjectionDTO is the projection response.
type ProjectionDTO struct {
	PlanID int64 `json:"plan_id,omitempty"`
	export.Document
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Format      string `json:"format"`
}

// LoadScenarioRequest is the request to load a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// LoadScenarioResponse reports what a scenario load created.
type LoadScenarioResponse struct {
	Status   string `json:"status"`
	Scenario string `json:"scenario"`
	PlanID   int64  `json:"plan_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEntryDTO(e generic.Entry) EntryDTO {
	dto := EntryDTO{
		ID:              int64(e.ID),
		Name:            e.Name,
		Amount:          export.Round2(e.Amount),
		Description:     e.Description,
		Category:        e.Category,
		IsAnnualPayment: e.IsAnnualPayment,
		CreatedAt:       formatTime(e.CreatedAt),
	}
	if e.IsAnnualPayment {
		m := int(e.AnnualMonth)
		dto.AnnualMonth = &m
	}
	return dto
}

func toEntryDTOs(entries []generic.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func (r CreateEntryRequest) toEntry() generic.Entry {
	e := generic.Entry{
		Name:            r.Name,
		Amount:          generic.Finite(r.Amount),
		Description:     r.Description,
		Category:        r.Category,
		IsAnnualPayment: r.IsAnnualPayment,
	}
	if r.AnnualMonth != nil {
		e.AnnualMonth = time.Month(*r.AnnualMonth)
	}
	return e
}

// toTemplateDTO resolves the template's entries from byID, skipping ids
// that no longer exist.
func toTemplateDTO(kind generic.Kind, t generic.Template, byID map[generic.EntryID]generic.Entry) TemplateDTO {
	dto := TemplateDTO{
		ID:          int64(t.ID),
		Kind:        string(kind),
		Name:        t.Name,
		Description: t.Description,
		EntryIDs:    make([]int64, 0, len(t.EntryIDs)),
		Entries:     []EntryDTO{},
		CreatedAt:   formatTime(t.CreatedAt),
	}
	for _, id := range t.EntryIDs {
		dto.EntryIDs = append(dto.EntryIDs, int64(id))
		if e, ok := byID[id]; ok {
			dto.Entries = append(dto.Entries, toEntryDTO(e))
		}
	}
	return dto
}

func toPlanDTO(pf *factory.PlanFactory, rec longterm.PlanRecord, labels []string) PlanDTO {
	return PlanDTO{
		PlanJSON:     pf.ToJSON(rec),
		PeriodLabels: labels,
		CreatedAt:    formatTime(rec.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
