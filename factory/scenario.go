package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// SCENARIO DOCUMENTS - Entries, templates and a plan in one file
// =============================================================================

// EntryJSON is the document form of an entry.
type EntryJSON struct {
	ID              int64   `json:"id" yaml:"id" toml:"id"`
	Name            string  `json:"name" yaml:"name" toml:"name"`
	Amount          float64 `json:"amount" yaml:"amount" toml:"amount"`
	Description     string  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Category        string  `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	IsAnnualPayment bool    `json:"is_annual_payment,omitempty" yaml:"is_annual_payment,omitempty" toml:"is_annual_payment,omitempty"`
	AnnualMonth     int     `json:"annual_month,omitempty" yaml:"annual_month,omitempty" toml:"annual_month,omitempty"`
}

// TemplateJSON is the document form of a template.
type TemplateJSON struct {
	ID          int64   `json:"id" yaml:"id" toml:"id"`
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	EntryIDs    []int64 `json:"entry_ids" yaml:"entry_ids" toml:"entry_ids"`
}

// ScenarioJSON is a self-contained projection input.
type ScenarioJSON struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`

	Incomes  []EntryJSON `json:"incomes" yaml:"incomes" toml:"incomes"`
	Expenses []EntryJSON `json:"expenses" yaml:"expenses" toml:"expenses"`
	Savings  []EntryJSON `json:"savings" yaml:"savings" toml:"savings"`

	IncomeTemplates  []TemplateJSON `json:"income_templates" yaml:"income_templates" toml:"income_templates"`
	ExpenseTemplates []TemplateJSON `json:"expense_templates" yaml:"expense_templates" toml:"expense_templates"`
	SavingTemplates  []TemplateJSON `json:"saving_templates" yaml:"saving_templates" toml:"saving_templates"`

	Plan PlanJSON `json:"plan" yaml:"plan" toml:"plan"`
}

func (s ScenarioJSON) entries(kind generic.Kind) []EntryJSON {
	switch kind {
	case generic.KindIncome:
		return s.Incomes
	case generic.KindExpense:
		return s.Expenses
	default:
		return s.Savings
	}
}

func (s ScenarioJSON) templates(kind generic.Kind) []TemplateJSON {
	switch kind {
	case generic.KindIncome:
		return s.IncomeTemplates
	case generic.KindExpense:
		return s.ExpenseTemplates
	default:
		return s.SavingTemplates
	}
}

// Scenario is a decoded scenario ready for the engine.
type Scenario struct {
	Name        string
	Description string
	Plan        longterm.PlanRecord
	Input       longterm.Input
}

// =============================================================================
// FORMATS
// =============================================================================

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported scenario file format: %q", filepath.Ext(path))
	}
}

// LoadScenario reads and decodes a scenario file. The format follows the
// file extension.
func (f *PlanFactory) LoadScenario(path string) (*Scenario, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing scenario file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading scenario file: %w", err)
	}
	return f.ParseScenario(data, format)
}

// ParseScenario decodes a scenario document of the given format.
func (f *PlanFactory) ParseScenario(data []byte, format Format) (*Scenario, error) {
	var sj ScenarioJSON
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &sj); err != nil {
			return nil, fmt.Errorf("error parsing JSON scenario: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &sj); err != nil {
			return nil, fmt.Errorf("error parsing YAML scenario: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &sj); err != nil {
			return nil, fmt.Errorf("error parsing TOML scenario: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported scenario format: %q", format)
	}
	return f.FromScenarioJSON(sj)
}

// FromScenarioJSON validates the collections and builds the engine input.
// Entries are validated like API input; ids must be unique per kind.
func (f *PlanFactory) FromScenarioJSON(sj ScenarioJSON) (*Scenario, error) {
	rec, err := f.FromJSON(sj.Plan)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if rec.Name == "" {
		rec.Name = sj.Name
	}

	in := longterm.Input{
		Plan:      rec.Plan,
		Entries:   make(longterm.Entries, len(generic.Kinds)),
		Templates: make(longterm.Templates, len(generic.Kinds)),
	}
	for _, kind := range generic.Kinds {
		entries, err := buildEntries(kind, sj.entries(kind))
		if err != nil {
			return nil, err
		}
		templates, err := buildTemplates(kind, sj.templates(kind))
		if err != nil {
			return nil, err
		}
		in.Entries[kind] = entries
		in.Templates[kind] = templates
	}

	return &Scenario{
		Name:        sj.Name,
		Description: sj.Description,
		Plan:        rec,
		Input:       in,
	}, nil
}

func buildEntries(kind generic.Kind, list []EntryJSON) ([]generic.Entry, error) {
	seen := make(map[int64]bool, len(list))
	out := make([]generic.Entry, 0, len(list))
	for _, ej := range list {
		if seen[ej.ID] {
			return nil, fmt.Errorf("%s entry %d: %w", kind, ej.ID, &generic.ValidationError{Field: "id", Message: "duplicate id"})
		}
		seen[ej.ID] = true

		e, err := EntryFromJSON(ej).Normalized(kind)
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", kind, ej.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func buildTemplates(kind generic.Kind, list []TemplateJSON) ([]generic.Template, error) {
	seen := make(map[int64]bool, len(list))
	out := make([]generic.Template, 0, len(list))
	for _, tj := range list {
		if seen[tj.ID] {
			return nil, fmt.Errorf("%s template %d: %w", kind, tj.ID, &generic.ValidationError{Field: "id", Message: "duplicate id"})
		}
		seen[tj.ID] = true

		t, err := TemplateFromJSON(tj).Normalized()
		if err != nil {
			return nil, fmt.Errorf("%s template %d: %w", kind, tj.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// EntryFromJSON converts without validating.
func EntryFromJSON(ej EntryJSON) generic.Entry {
	return generic.Entry{
		ID:              generic.EntryID(ej.ID),
		Name:            ej.Name,
		Amount:          generic.Finite(ej.Amount),
		Description:     ej.Description,
		Category:        ej.Category,
		IsAnnualPayment: ej.IsAnnualPayment,
		AnnualMonth:     time.Month(ej.AnnualMonth),
	}
}

// TemplateFromJSON converts without validating.
func TemplateFromJSON(tj TemplateJSON) generic.Template {
	t := generic.Template{
		ID:          generic.TemplateID(tj.ID),
		Name:        tj.Name,
		Description: tj.Description,
	}
	for _, id := range tj.EntryIDs {
		t.EntryIDs = append(t.EntryIDs, generic.EntryID(id))
	}
	return t
}
