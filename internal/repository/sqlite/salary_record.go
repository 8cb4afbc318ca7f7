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

type salaryRepository struct {
	db *database.SQLite
}

func NewSalaryRepository(db *database.SQLite) payroll.SalaryRepository {
	return &salaryRepository{db: db}
}

// Upsert implements payroll.SalaryRepository.
func (r *salaryRepository) Upsert(ctx context.Context, record payroll.SalaryRecord, override bool) (payroll.Outcome, error) {
	breakdown, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode salary record: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storeError("begin transaction", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM salary_records WHERE employee_id = ? AND month = ?`,
		record.EmployeeID, record.Month.String(),
	).Scan(&existing)
	if err != nil {
		return "", storeError("check salary record", err)
	}

	ts := now()
	outcome := payroll.OutcomeInserted
	switch {
	case existing == 0:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO salary_records (id, employee_id, month, policy_version, net_salary, closing_balance, breakdown, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, record.ID, record.EmployeeID, record.Month.String(), record.PolicyVersion, record.NetSalary.String(),
			record.Leave.ClosingBalance.String(), string(breakdown), ts, ts)
	case !override:
		return payroll.OutcomeSkipped, nil
	default:
		outcome = payroll.OutcomeReplaced
		_, err = tx.ExecContext(ctx, `
			UPDATE salary_records
			SET policy_version = ?, net_salary = ?, closing_balance = ?, breakdown = ?, updated_at = ?
			WHERE employee_id = ? AND month = ?
		`, record.PolicyVersion, record.NetSalary.String(), record.Leave.ClosingBalance.String(), string(breakdown), ts,
			record.EmployeeID, record.Month.String())
	}
	if err != nil {
		return "", storeError("upsert salary record", err)
	}

	if err := tx.Commit(); err != nil {
		return "", storeError("commit salary record", err)
	}
	return outcome, nil
}

const salaryColumns = `id, breakdown, created_at, updated_at`

func scanSalaryRecord(row scanner) (payroll.SalaryRecord, error) {
	var id, breakdown, createdAt, updatedAt string
	if err := row.Scan(&id, &breakdown, &createdAt, &updatedAt); err != nil {
		return payroll.SalaryRecord{}, err
	}

	var rec payroll.SalaryRecord
	if err := json.Unmarshal([]byte(breakdown), &rec); err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to decode salary record %s: %w", id, err)
	}

	var err error
	rec.ID = id
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return payroll.SalaryRecord{}, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return payroll.SalaryRecord{}, err
	}
	return rec, nil
}

// Get implements payroll.SalaryRepository.
func (r *salaryRepository) Get(ctx context.Context, employeeID string, month period.Period) (payroll.SalaryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+salaryColumns+` FROM salary_records WHERE employee_id = ? AND month = ?`,
		employeeID, month.String())

	rec, err := scanSalaryRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
		}
		return payroll.SalaryRecord{}, storeError("get salary record", err)
	}
	return rec, nil
}

// ListByMonth implements payroll.SalaryRepository.
func (r *salaryRepository) ListByMonth(ctx context.Context, month period.Period) ([]payroll.SalaryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+salaryColumns+` FROM salary_records WHERE month = ? ORDER BY employee_id`, month.String())
	if err != nil {
		return nil, storeError("list salary records", err)
	}
	defer rows.Close()

	var records []payroll.SalaryRecord
	for rows.Next() {
		rec, err := scanSalaryRecord(rows)
		if err != nil {
			return nil, storeError("scan salary record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list salary records", err)
	}
	return records, nil
}

// LatestBefore implements payroll.SalaryRepository.
func (r *salaryRepository) LatestBefore(ctx context.Context, employeeID string, month period.Period) (payroll.SalaryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+salaryColumns+` FROM salary_records
		WHERE employee_id = ? AND month < ?
		ORDER BY month DESC LIMIT 1`,
		employeeID, month.String())

	rec, err := scanSalaryRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
		}
		return payroll.SalaryRecord{}, storeError("get latest salary record", err)
	}
	return rec, nil
}

// ListLatestBefore implements payroll.SalaryRepository.
func (r *salaryRepository) ListLatestBefore(ctx context.Context, month period.Period) ([]payroll.SalaryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+salaryColumns+` FROM salary_records s
		WHERE s.month = (
			SELECT MAX(p.month) FROM salary_records p
			WHERE p.employee_id = s.employee_id AND p.month < ?
		)
		ORDER BY s.employee_id
	`, month.String())
	if err != nil {
		return nil, storeError("list latest salary records", err)
	}
	defer rows.Close()

	var records []payroll.SalaryRecord
	for rows.Next() {
		rec, err := scanSalaryRecord(rows)
		if err != nil {
			return nil, storeError("scan salary record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list latest salary records", err)
	}
	return records, nil
}
