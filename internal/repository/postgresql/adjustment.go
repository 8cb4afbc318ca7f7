package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
)

type adjustmentRepository struct {
	db *database.DB
}

func NewAdjustmentRepository(db *database.DB) payroll.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

const adjustmentColumns = `employee_id, month, leave_taken, advance, loan, fine, other,
	other_tax_deductions, allowances, updated_at`

func scanAdjustments(row pgx.Row) (payroll.Adjustments, error) {
	var (
		adj        payroll.Adjustments
		month      string
		allowances []byte
	)
	err := row.Scan(
		&adj.EmployeeID, &month, &adj.LeaveTaken, &adj.Advance, &adj.Loan, &adj.Fine, &adj.Other,
		&adj.OtherTaxDeductions, &allowances, &adj.UpdatedAt,
	)
	if err != nil {
		return payroll.Adjustments{}, err
	}

	if adj.Month, err = period.Parse(month); err != nil {
		return payroll.Adjustments{}, err
	}
	if len(allowances) > 0 {
		if err := json.Unmarshal(allowances, &adj.Allowances); err != nil {
			return payroll.Adjustments{}, fmt.Errorf("failed to decode allowances: %w", err)
		}
	}
	if len(adj.Allowances) == 0 {
		adj.Allowances = nil
	}
	return adj, nil
}

// Get implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) Get(ctx context.Context, employeeID string, month period.Period) (payroll.Adjustments, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + adjustmentColumns + ` FROM payroll_adjustments WHERE employee_id = $1 AND month = $2`

	adj, err := scanAdjustments(q.QueryRow(ctx, query, employeeID, month.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Adjustments{EmployeeID: employeeID, Month: month}, nil
		}
		return payroll.Adjustments{}, storeError("get adjustments", err)
	}
	return adj, nil
}

// ListByMonth implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) ListByMonth(ctx context.Context, month period.Period) ([]payroll.Adjustments, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + adjustmentColumns + ` FROM payroll_adjustments WHERE month = $1 ORDER BY employee_id`

	rows, err := q.Query(ctx, query, month.String())
	if err != nil {
		return nil, storeError("list adjustments", err)
	}
	defer rows.Close()

	var list []payroll.Adjustments
	for rows.Next() {
		adj, err := scanAdjustments(rows)
		if err != nil {
			return nil, storeError("scan adjustments", err)
		}
		list = append(list, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list adjustments", err)
	}
	return list, nil
}

// Upsert implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) Upsert(ctx context.Context, adj payroll.Adjustments) (payroll.Adjustments, error) {
	q := GetQuerier(ctx, r.db)

	allowances, err := json.Marshal(adj.Allowances)
	if err != nil {
		return payroll.Adjustments{}, fmt.Errorf("failed to encode allowances: %w", err)
	}
	if adj.Allowances == nil {
		allowances = []byte("{}")
	}

	query := `
		INSERT INTO payroll_adjustments (
			employee_id, month, leave_taken, advance, loan, fine, other, other_tax_deductions, allowances
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, month) DO UPDATE SET
			leave_taken = EXCLUDED.leave_taken,
			advance = EXCLUDED.advance,
			loan = EXCLUDED.loan,
			fine = EXCLUDED.fine,
			other = EXCLUDED.other,
			other_tax_deductions = EXCLUDED.other_tax_deductions,
			allowances = EXCLUDED.allowances,
			updated_at = NOW()
		RETURNING ` + adjustmentColumns

	saved, err := scanAdjustments(q.QueryRow(ctx, query,
		adj.EmployeeID, adj.Month.String(), adj.LeaveTaken, adj.Advance, adj.Loan, adj.Fine, adj.Other,
		adj.OtherTaxDeductions, allowances,
	))
	if err != nil {
		return payroll.Adjustments{}, storeError("upsert adjustments", err)
	}
	return saved, nil
}
