/*
Package factory converts plan documents into engine values.

PURPOSE:
  Plans arrive as JSON from the API and as JSON, YAML or TOML scenario files
  from the CLI. The factory turns those documents into longterm.Plan values,
  applying defaults and rejecting caller mistakes, and converts stored plans
  back into the same document shape.

DOCUMENT SCHEMA (snake_case, shared by every format):
  {
    "name": "Family plan",
    "starting_balance": 2500,
    "starting_saving_balance": 10000,
    "savings_return_rate": 7,
    "financing_start_month": "2026-04",
    "car_purchase_price": 32000,
    "car_down_payment": 6000,
    "car_final_payment": 8000,
    "car_term_months": 48,
    "car_monthly_rate": 0,
    "car_interest_rate": 4.9,
    "car_insurance_monthly": 65,
    "car_fuel_monthly": 120,
    "car_maintenance_monthly": 40,
    "car_tax_monthly": 15,
    "periods": [
      {
        "start_month": "2025-01",
        "end_month": "2026-12",
        "income_template_ids": [1],
        "expense_template_ids": [1, 2],
        "saving_template_ids": []
      }
    ]
  }

DEFAULTS:
  - savings_return_rate: 7 when absent
  - financing: inactive unless financing_start_month is set and
    car_term_months > 0

NUMBERS:
  Numbers are float64 in documents. NaN and ±Inf (possible in YAML and TOML)
  are coerced to 0 on the way in.

SEE ALSO:
  - longterm/types.go: Plan, Period, Financing
  - factory/scenario.go: Self-contained scenario files
*/
package factory

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// PeriodJSON is the document form of a plan period.
type PeriodJSON struct {
	StartMonth         string  `json:"start_month" yaml:"start_month" toml:"start_month"`
	EndMonth           string  `json:"end_month" yaml:"end_month" toml:"end_month"`
	IncomeTemplateIDs  []int64 `json:"income_template_ids" yaml:"income_template_ids" toml:"income_template_ids"`
	ExpenseTemplateIDs []int64 `json:"expense_template_ids" yaml:"expense_template_ids" toml:"expense_template_ids"`
	SavingTemplateIDs  []int64 `json:"saving_template_ids" yaml:"saving_template_ids" toml:"saving_template_ids"`
}

// PlanJSON is the document form of a plan.
type PlanJSON struct {
	ID                    int64    `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Name                  string   `json:"name" yaml:"name" toml:"name"`
	Description           string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	StartingBalance       float64  `json:"starting_balance" yaml:"starting_balance" toml:"starting_balance"`
	StartingSavingBalance float64  `json:"starting_saving_balance" yaml:"starting_saving_balance" toml:"starting_saving_balance"`
	SavingsReturnRate     *float64 `json:"savings_return_rate,omitempty" yaml:"savings_return_rate,omitempty" toml:"savings_return_rate,omitempty"`

	FinancingStartMonth   string  `json:"financing_start_month,omitempty" yaml:"financing_start_month,omitempty" toml:"financing_start_month,omitempty"`
	CarPurchasePrice      float64 `json:"car_purchase_price" yaml:"car_purchase_price" toml:"car_purchase_price"`
	CarDownPayment        float64 `json:"car_down_payment" yaml:"car_down_payment" toml:"car_down_payment"`
	CarFinalPayment       float64 `json:"car_final_payment" yaml:"car_final_payment" toml:"car_final_payment"`
	CarTermMonths         int     `json:"car_term_months" yaml:"car_term_months" toml:"car_term_months"`
	CarMonthlyRate        float64 `json:"car_monthly_rate" yaml:"car_monthly_rate" toml:"car_monthly_rate"`
	CarInterestRate       float64 `json:"car_interest_rate" yaml:"car_interest_rate" toml:"car_interest_rate"`
	CarInsuranceMonthly   float64 `json:"car_insurance_monthly" yaml:"car_insurance_monthly" toml:"car_insurance_monthly"`
	CarFuelMonthly        float64 `json:"car_fuel_monthly" yaml:"car_fuel_monthly" toml:"car_fuel_monthly"`
	CarMaintenanceMonthly float64 `json:"car_maintenance_monthly" yaml:"car_maintenance_monthly" toml:"car_maintenance_monthly"`
	CarTaxMonthly         float64 `json:"car_tax_monthly" yaml:"car_tax_monthly" toml:"car_tax_monthly"`

	Periods []PeriodJSON `json:"periods" yaml:"periods" toml:"periods"`
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts plan documents to engine values and back.
type PlanFactory struct{}

// NewPlanFactory creates a new plan factory.
func NewPlanFactory() *PlanFactory {
	return &PlanFactory{}
}

// ParsePlan parses a JSON document into a plan record.
func (f *PlanFactory) ParsePlan(data []byte) (longterm.PlanRecord, error) {
	var pj PlanJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("%w: failed to parse plan JSON: %v", generic.ErrValidation, err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts a document into a plan record. The record's ID is
// copied from the document; CreatedAt is left for the store to set.
func (f *PlanFactory) FromJSON(pj PlanJSON) (longterm.PlanRecord, error) {
	plan, err := f.BuildPlan(pj)
	if err != nil {
		return longterm.PlanRecord{}, err
	}
	return longterm.PlanRecord{
		ID:          longterm.PlanID(pj.ID),
		Name:        pj.Name,
		Description: pj.Description,
		Plan:        plan,
	}, nil
}

// BuildPlan converts the numeric part of a document into a Plan.
//
// Rejected: a negative return rate or car amount, a car term above
// longterm.MaxTermMonths, an unparsable month, an inverted period, and a
// template listed twice within one list of a period. Periods are reported by their 1-based index.
func (f *PlanFactory) BuildPlan(pj PlanJSON) (longterm.Plan, error) {
	rate := longterm.DefaultSavingsReturnRate
	if pj.SavingsReturnRate != nil {
		rate = generic.Finite(*pj.SavingsReturnRate)
	}
	if rate.IsNegative() {
		return longterm.Plan{}, fmt.Errorf("%w: got %s", generic.ErrNegativeReturnRate, rate)
	}

	plan := longterm.Plan{
		StartingCashBalance:      generic.Finite(pj.StartingBalance),
		StartingSavingBalance:    generic.Finite(pj.StartingSavingBalance),
		SavingsReturnRatePercent: rate,
	}

	financing, err := buildFinancing(pj)
	if err != nil {
		return longterm.Plan{}, err
	}
	plan.Financing = financing

	for i, pp := range pj.Periods {
		period, err := buildPeriod(pp)
		if err != nil {
			return longterm.Plan{}, &generic.PeriodError{Index: i + 1, Err: err}
		}
		plan.Periods = append(plan.Periods, period)
	}
	if len(plan.Periods) > 0 {
		if err := longterm.ValidatePeriods(plan.Periods); err != nil {
			return longterm.Plan{}, err
		}
	}
	return plan, nil
}

func buildPeriod(pp PeriodJSON) (longterm.Period, error) {
	start, err := generic.ParseMonth(pp.StartMonth)
	if err != nil {
		return longterm.Period{}, fmt.Errorf("start_month: %w", err)
	}
	end, err := generic.ParseMonth(pp.EndMonth)
	if err != nil {
		return longterm.Period{}, fmt.Errorf("end_month: %w", err)
	}
	return longterm.Period{
		Start:              start,
		End:                end,
		IncomeTemplateIDs:  templateIDs(pp.IncomeTemplateIDs),
		ExpenseTemplateIDs: templateIDs(pp.ExpenseTemplateIDs),
		SavingTemplateIDs:  templateIDs(pp.SavingTemplateIDs),
	}, nil
}

func buildFinancing(pj PlanJSON) (*longterm.Financing, error) {
	start, err := generic.ParseOptionalMonth(pj.FinancingStartMonth)
	if err != nil {
		return nil, fmt.Errorf("financing_start_month: %w", err)
	}

	fin := &longterm.Financing{
		StartMonth:                start,
		PurchasePrice:             generic.Finite(pj.CarPurchasePrice),
		DownPayment:               generic.Finite(pj.CarDownPayment),
		FinalPayment:              generic.Finite(pj.CarFinalPayment),
		TermMonths:                pj.CarTermMonths,
		MonthlyRate:               generic.Finite(pj.CarMonthlyRate),
		AnnualInterestRatePercent: generic.Finite(pj.CarInterestRate),
		InsuranceMonthly:          generic.Finite(pj.CarInsuranceMonthly),
		FuelMonthly:               generic.Finite(pj.CarFuelMonthly),
		MaintenanceMonthly:        generic.Finite(pj.CarMaintenanceMonthly),
		TaxMonthly:                generic.Finite(pj.CarTaxMonthly),
	}
	if err := fin.Validate(); err != nil {
		return nil, err
	}
	return fin, nil
}

func templateIDs(ids []int64) []generic.TemplateID {
	if len(ids) == 0 {
		return nil
	}
	out := make([]generic.TemplateID, len(ids))
	for i, id := range ids {
		out[i] = generic.TemplateID(id)
	}
	return out
}

// =============================================================================
// REVERSE CONVERSION
// =============================================================================

// ToJSON converts a plan record to its document form.
func (f *PlanFactory) ToJSON(rec longterm.PlanRecord) PlanJSON {
	rate := float(rec.SavingsReturnRatePercent)
	pj := PlanJSON{
		ID:                    int64(rec.ID),
		Name:                  rec.Name,
		Description:           rec.Description,
		StartingBalance:       float(rec.StartingCashBalance),
		StartingSavingBalance: float(rec.StartingSavingBalance),
		SavingsReturnRate:     &rate,
		Periods:               make([]PeriodJSON, 0, len(rec.Periods)),
	}

	if fin := rec.Financing; fin != nil {
		pj.FinancingStartMonth = fin.StartMonth.String()
		pj.CarPurchasePrice = float(fin.PurchasePrice)
		pj.CarDownPayment = float(fin.DownPayment)
		pj.CarFinalPayment = float(fin.FinalPayment)
		pj.CarTermMonths = fin.TermMonths
		pj.CarMonthlyRate = float(fin.MonthlyRate)
		pj.CarInterestRate = float(fin.AnnualInterestRatePercent)
		pj.CarInsuranceMonthly = float(fin.InsuranceMonthly)
		pj.CarFuelMonthly = float(fin.FuelMonthly)
		pj.CarMaintenanceMonthly = float(fin.MaintenanceMonthly)
		pj.CarTaxMonthly = float(fin.TaxMonthly)
	}

	for _, p := range rec.Periods {
		pj.Periods = append(pj.Periods, PeriodJSON{
			StartMonth:         p.Start.String(),
			EndMonth:           p.End.String(),
			IncomeTemplateIDs:  int64s(p.IncomeTemplateIDs),
			ExpenseTemplateIDs: int64s(p.ExpenseTemplateIDs),
			SavingTemplateIDs:  int64s(p.SavingTemplateIDs),
		})
	}
	return pj
}

func float(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func int64s(ids []generic.TemplateID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
