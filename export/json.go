package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/longterm"
)

// RowJSON is one projected month on the wire.
type RowJSON struct {
	Month              string  `json:"month"`
	Income             float64 `json:"income"`
	Expense            float64 `json:"expense"`
	Saving             float64 `json:"saving"`
	Net                float64 `json:"net"`
	CashBalance        float64 `json:"cash_balance"`
	SavingAccountTotal float64 `json:"saving_account_total"`
	InvestedBalance    float64 `json:"invested_balance"`
	TotalWealth        float64 `json:"total_wealth"`
}

// FinancingJSON is the financing summary on the wire.
type FinancingJSON struct {
	StartMonth         string  `json:"start_month"`
	EndMonth           string  `json:"end_month"`
	TermMonths         int     `json:"term_months"`
	Principal          float64 `json:"principal"`
	Installment        float64 `json:"installment"`
	InstallmentDerived bool    `json:"installment_derived"`
	RunningCost        float64 `json:"running_cost"`
	TotalOutlay        float64 `json:"total_outlay"`
}

// Document is the JSON form of a report.
type Document struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Periods     []string       `json:"periods"`
	Rows        []RowJSON      `json:"rows"`
	Financing   *FinancingJSON `json:"financing,omitempty"`
	Final       *RowJSON       `json:"final,omitempty"`
	GeneratedAt string         `json:"generated_at,omitempty"`
}

// Round2 converts d to a float64 rounded half-up to cents.
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func rowJSON(row longterm.MonthlyRow) RowJSON {
	return RowJSON{
		Month:              row.Month.String(),
		Income:             Round2(row.Income),
		Expense:            Round2(row.Expense),
		Saving:             Round2(row.Saving),
		Net:                Round2(row.Net),
		CashBalance:        Round2(row.CashBalance),
		SavingAccountTotal: Round2(row.SavingAccountTotal),
		InvestedBalance:    Round2(row.InvestedBalance),
		TotalWealth:        Round2(row.TotalWealth),
	}
}

// Rows converts every projected month; never nil.
func Rows(p *longterm.Projection) []RowJSON {
	if p == nil {
		return []RowJSON{}
	}
	out := make([]RowJSON, len(p.Rows))
	for i, row := range p.Rows {
		out[i] = rowJSON(row)
	}
	return out
}

// Financing converts the summary, nil without active financing.
func Financing(s *longterm.FinancingSummary) *FinancingJSON {
	if s == nil {
		return nil
	}
	return &FinancingJSON{
		StartMonth:         s.StartMonth.String(),
		EndMonth:           s.EndMonth.String(),
		TermMonths:         s.TermMonths,
		Principal:          Round2(s.Principal),
		Installment:        Round2(s.Installment),
		InstallmentDerived: s.InstallmentDerived,
		RunningCost:        Round2(s.RunningCost),
		TotalOutlay:        Round2(s.TotalOutlay),
	}
}

// NewDocument builds the JSON form of r.
func NewDocument(r Report) Document {
	doc := Document{
		Name:        r.Title,
		Description: r.Description,
		Periods:     r.Periods,
		Rows:        Rows(r.Projection),
	}
	if doc.Periods == nil {
		doc.Periods = []string{}
	}
	if r.Projection != nil {
		doc.Financing = Financing(r.Projection.Financing)
		if final, ok := r.Projection.Final(); ok {
			f := rowJSON(final)
			doc.Final = &f
		}
	}
	if !r.GeneratedAt.IsZero() {
		doc.GeneratedAt = r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return doc
}

// WriteJSON writes the indented document.
func WriteJSON(w io.Writer, r Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}
