package longterm

import (
	"fmt"

	"github.com/warp/financeflow/generic"
)

// Input is everything one projection run needs. All collections are
// snapshots already fetched by the caller; the engine only reads them.
type Input struct {
	Plan      Plan
	Entries   Entries
	Templates Templates
}

// Validate checks the plan-level constraints. Period ranges are checked
// while aggregating so the error can carry the period index.
func (in Input) Validate() error {
	if in.Plan.SavingsReturnRatePercent.IsNegative() {
		return fmt.Errorf("%w: got %s", generic.ErrNegativeReturnRate, in.Plan.SavingsReturnRatePercent)
	}
	return in.Plan.Financing.Validate()
}

// Project runs the full pipeline: catalog, aggregation, financing, wealth.
//
// Errors are always caller-correctable: a *generic.PeriodError for the
// first invalid period, ErrNegativeReturnRate, or a *generic.ValidationError
// for an out-of-range financing. No rows are returned on
// error. A plan without periods or financing yields an empty projection.
func Project(in Input) (*Projection, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	catalog := NewCatalog(in.Entries, in.Templates)
	ledger, err := Aggregate(in.Plan.Periods, catalog)
	if err != nil {
		return nil, err
	}

	var summary *FinancingSummary
	if in.Plan.Financing != nil {
		summary = in.Plan.Financing.Inject(ledger)
	}

	return &Projection{
		Rows:      Walk(ledger.Lines(), in.Plan),
		Financing: summary,
	}, nil
}

// PeriodLabels describes every period of the plan using template names.
func PeriodLabels(in Input) []string {
	return NewCatalog(in.Entries, in.Templates).DescribeAll(in.Plan.Periods)
}
