package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/goccy/go-json"
)

type adjustmentRepository struct {
	db *database.SQLite
}

func NewAdjustmentRepository(db *database.SQLite) payroll.AdjustmentRepository {
	return &adjustmentRepository{db: db}
}

const adjustmentColumns = `employee_id, month, leave_taken, advance, loan, fine, other,
	other_tax_deductions, allowances, updated_at`

func scanAdjustments(row scanner) (payroll.Adjustments, error) {
	var adj payroll.Adjustments
	var month, allowances, updatedAt string

	err := row.Scan(
		&adj.EmployeeID, &month, &adj.LeaveTaken, &adj.Advance, &adj.Loan, &adj.Fine, &adj.Other,
		&adj.OtherTaxDeductions, &allowances, &updatedAt,
	)
	if err != nil {
		return payroll.Adjustments{}, err
	}

	if adj.Month, err = period.Parse(month); err != nil {
		return payroll.Adjustments{}, err
	}
	if adj.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return payroll.Adjustments{}, err
	}
	if err := json.Unmarshal([]byte(allowances), &adj.Allowances); err != nil {
		return payroll.Adjustments{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	if len(adj.Allowances) == 0 {
		adj.Allowances = nil
	}
	return adj, nil
}

// Get implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) Get(ctx context.Context, employeeID string, month period.Period) (payroll.Adjustments, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adjustmentColumns+` FROM payroll_adjustments WHERE employee_id = ? AND month = ?`,
		employeeID, month.String())

	adj, err := scanAdjustments(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.Adjustments{EmployeeID: employeeID, Month: month}, nil
		}
		return payroll.Adjustments{}, storeError("get adjustments", err)
	}
	return adj, nil
}

// ListByMonth implements payroll.AdjustmentRepository.
func (r *adjustmentRepository) ListByMonth(ctx context.Context, month period.Period) ([]payroll.Adjustments, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+adjustmentColumns+` FROM payroll_adjustments WHERE month = ? ORDER BY employee_id`, month.String())
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
	allowances := []byte("{}")
	if len(adj.Allowances) > 0 {
		var err error
		if allowances, err = json.Marshal(adj.Allowances); err != nil {
			return payroll.Adjustments{}, fmt.Errorf("failed to encode allowances: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payroll_adjustments (
			employee_id, month, leave_taken, advance, loan, fine, other, other_tax_deductions, allowances, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, month) DO UPDATE SET
			leave_taken = excluded.leave_taken,
			advance = excluded.advance,
			loan = excluded.loan,
			fine = excluded.fine,
			other = excluded.other,
			other_tax_deductions = excluded.other_tax_deductions,
			allowances = excluded.allowances,
			updated_at = excluded.updated_at
	`, adj.EmployeeID, adj.Month.String(), adj.LeaveTaken.String(), adj.Advance.String(), adj.Loan.String(),
		adj.Fine.String(), adj.Other.String(), adj.OtherTaxDeductions.String(), string(allowances), now())
	if err != nil {
		return payroll.Adjustments{}, storeError("upsert adjustments", err)
	}

	return r.Get(ctx, adj.EmployeeID, adj.Month)
}
