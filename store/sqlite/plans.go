package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

// =============================================================================
// PLANS (longterm.PlanStore interface)
// =============================================================================

const planColumns = `
	id, name, description, starting_balance, starting_saving_balance, savings_return_rate,
	financing_start_month, car_purchase_price, car_down_payment, car_final_payment,
	car_term_months, car_monthly_rate, car_interest_rate, car_insurance_monthly,
	car_fuel_monthly, car_maintenance_monthly, car_tax_monthly, created_at`

// CreatePlan stores a plan with its periods and financing.
func (s *Store) CreatePlan(ctx context.Context, p longterm.PlanRecord) (longterm.PlanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p.CreatedAt = time.Now().UTC()
	f := financingOrZero(p.Financing)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO plans (
			name, description, starting_balance, starting_saving_balance, savings_return_rate,
			financing_start_month, car_purchase_price, car_down_payment, car_final_payment,
			car_term_months, car_monthly_rate, car_interest_rate, car_insurance_monthly,
			car_fuel_monthly, car_maintenance_monthly, car_tax_monthly, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.Name,
		p.Description,
		p.StartingCashBalance.String(),
		p.StartingSavingBalance.String(),
		p.SavingsReturnRatePercent.String(),
		nullString(f.StartMonth.String()),
		f.PurchasePrice.String(),
		f.DownPayment.String(),
		f.FinalPayment.String(),
		f.TermMonths,
		f.MonthlyRate.String(),
		f.AnnualInterestRatePercent.String(),
		f.InsuranceMonthly.String(),
		f.FuelMonthly.String(),
		f.MaintenanceMonthly.String(),
		f.TaxMonthly.String(),
		p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to insert plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to read plan id: %w", err)
	}
	p.ID = longterm.PlanID(id)

	if err := insertPeriods(ctx, tx, p.ID, p.Periods); err != nil {
		return longterm.PlanRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to commit plan: %w", err)
	}
	return p, nil
}

// UpdatePlan replaces settings, periods and financing of an existing plan.
// An empty Name keeps the stored name and description.
func (s *Store) UpdatePlan(ctx context.Context, p longterm.PlanRecord) (longterm.PlanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var name, description, createdAt string
	err = tx.QueryRowContext(ctx, "SELECT name, description, created_at FROM plans WHERE id = ?", p.ID).
		Scan(&name, &description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return longterm.PlanRecord{}, generic.ErrNotFound
	}
	if err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to load plan %d: %w", p.ID, err)
	}
	if p.Name == "" {
		p.Name, p.Description = name, description
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	f := financingOrZero(p.Financing)
	if _, err := tx.ExecContext(ctx, `
		UPDATE plans SET
			name = ?, description = ?, starting_balance = ?, starting_saving_balance = ?,
			savings_return_rate = ?, financing_start_month = ?, car_purchase_price = ?,
			car_down_payment = ?, car_final_payment = ?, car_term_months = ?,
			car_monthly_rate = ?, car_interest_rate = ?, car_insurance_monthly = ?,
			car_fuel_monthly = ?, car_maintenance_monthly = ?, car_tax_monthly = ?
		WHERE id = ?
	`,
		p.Name,
		p.Description,
		p.StartingCashBalance.String(),
		p.StartingSavingBalance.String(),
		p.SavingsReturnRatePercent.String(),
		nullString(f.StartMonth.String()),
		f.PurchasePrice.String(),
		f.DownPayment.String(),
		f.FinalPayment.String(),
		f.TermMonths,
		f.MonthlyRate.String(),
		f.AnnualInterestRatePercent.String(),
		f.InsuranceMonthly.String(),
		f.FuelMonthly.String(),
		f.MaintenanceMonthly.String(),
		f.TaxMonthly.String(),
		p.ID,
	); err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to update plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_periods WHERE plan_id = ?", p.ID); err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to clear periods: %w", err)
	}
	if err := insertPeriods(ctx, tx, p.ID, p.Periods); err != nil {
		return longterm.PlanRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return longterm.PlanRecord{}, fmt.Errorf("failed to commit plan: %w", err)
	}
	return p, nil
}

// ListPlans returns every plan, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]longterm.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+planColumns+" FROM plans ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}

	var result []longterm.PlanRecord
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The single connection is free again once rows is closed.
	for i := range result {
		if result[i].Periods, err = s.queryPeriods(ctx, result[i].ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetPlan returns a plan with its periods sorted by start month, or nil
// when no plan has the id.
func (s *Store) GetPlan(ctx context.Context, id longterm.PlanID) (*longterm.PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanPlan(s.db.QueryRowContext(ctx, "SELECT "+planColumns+" FROM plans WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Periods, err = s.queryPeriods(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlan removes a plan; its periods cascade.
func (s *Store) DeletePlan(ctx context.Context, id longterm.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return requireAffected(res)
}

// =============================================================================
// PERIODS
// =============================================================================

func insertPeriods(ctx context.Context, tx *sql.Tx, planID longterm.PlanID, periods []longterm.Period) error {
	for i, period := range periods {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO plan_periods (plan_id, start_month, end_month) VALUES (?, ?, ?)",
			planID, period.Start.String(), period.End.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert period %d: %w", i+1, err)
		}
		periodID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read period id: %w", err)
		}
		for _, kind := range generic.Kinds {
			if err := linkTemplates(ctx, tx, periodID, kind, period.TemplateIDs(kind)); err != nil {
				return fmt.Errorf("period %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func linkTemplates(ctx context.Context, db execer, periodID int64, kind generic.Kind, ids []generic.TemplateID) error {
	for pos, id := range ids {
		if _, err := db.ExecContext(ctx,
			"INSERT OR IGNORE INTO plan_period_templates (period_id, kind, template_id, position) VALUES (?, ?, ?, ?)",
			periodID, string(kind), id, pos,
		); err != nil {
			return fmt.Errorf("failed to link %s template %d: %w", kind, id, err)
		}
	}
	return nil
}

func (s *Store) queryPeriods(ctx context.Context, planID longterm.PlanID) ([]longterm.Period, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_month, end_month
		FROM plan_periods
		WHERE plan_id = ?
		ORDER BY start_month, id
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}

	periods := []longterm.Period{}
	index := make(map[int64]int)
	for rows.Next() {
		var (
			id         int64
			start, end string
		)
		if err := rows.Scan(&id, &start, &end); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		var period longterm.Period
		if period.Start, err = generic.ParseMonth(start); err != nil {
			rows.Close()
			return nil, err
		}
		if period.End, err = generic.ParseMonth(end); err != nil {
			rows.Close()
			return nil, err
		}
		index[id] = len(periods)
		periods = append(periods, period)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := s.db.QueryContext(ctx, `
		SELECT ppt.period_id, ppt.kind, ppt.template_id
		FROM plan_period_templates ppt
		JOIN plan_periods pp ON pp.id = ppt.period_id
		WHERE pp.plan_id = ?
		ORDER BY ppt.period_id, ppt.kind, ppt.position
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query period templates: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var (
			periodID   int64
			kind       string
			templateID generic.TemplateID
		)
		if err := links.Scan(&periodID, &kind, &templateID); err != nil {
			return nil, fmt.Errorf("failed to scan period template: %w", err)
		}
		i, ok := index[periodID]
		if !ok {
			continue
		}
		p := &periods[i]
		switch generic.Kind(kind) {
		case generic.KindIncome:
			p.IncomeTemplateIDs = append(p.IncomeTemplateIDs, templateID)
		case generic.KindExpense:
			p.ExpenseTemplateIDs = append(p.ExpenseTemplateIDs, templateID)
		case generic.KindSaving:
			p.SavingTemplateIDs = append(p.SavingTemplateIDs, templateID)
		}
	}
	return periods, links.Err()
}

// =============================================================================
// SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (longterm.PlanRecord, error) {
	var (
		p          longterm.PlanRecord
		f          longterm.Financing
		startMonth sql.NullString
		createdAt  string
		text       [12]string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description,
		&text[0], &text[1], &text[2],
		&startMonth, &text[3], &text[4], &text[5],
		&f.TermMonths, &text[6], &text[7], &text[8],
		&text[9], &text[10], &text[11],
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan plan: %w", err)
	}

	targets := []struct {
		column string
		dst    *decimal.Decimal
	}{
		{"starting_balance", &p.StartingCashBalance},
		{"starting_saving_balance", &p.StartingSavingBalance},
		{"savings_return_rate", &p.SavingsReturnRatePercent},
		{"car_purchase_price", &f.PurchasePrice},
		{"car_down_payment", &f.DownPayment},
		{"car_final_payment", &f.FinalPayment},
		{"car_monthly_rate", &f.MonthlyRate},
		{"car_interest_rate", &f.AnnualInterestRatePercent},
		{"car_insurance_monthly", &f.InsuranceMonthly},
		{"car_fuel_monthly", &f.FuelMonthly},
		{"car_maintenance_monthly", &f.MaintenanceMonthly},
		{"car_tax_monthly", &f.TaxMonthly},
	}
	for i, t := range targets {
		if *t.dst, err = parseDecimal(t.column, text[i]); err != nil {
			return p, fmt.Errorf("plan %d: %w", p.ID, err)
		}
	}

	if startMonth.Valid {
		if f.StartMonth, err = generic.ParseMonth(startMonth.String); err != nil {
			return p, fmt.Errorf("plan %d: %w", p.ID, err)
		}
	}
	p.Financing = &f
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return p, nil
}

func financingOrZero(f *longterm.Financing) longterm.Financing {
	if f == nil {
		return longterm.Financing{}
	}
	return *f
}
