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

type salaryRepository struct {
	db *database.DB
}

func NewSalaryRepository(db *database.DB) payroll.SalaryRepository {
	return &salaryRepository{db: db}
}

// Upsert implements payroll.SalaryRepository. The full record is kept in the breakdown column;
// the totals are duplicated into columns for reporting queries.
func (r *salaryRepository) Upsert(ctx context.Context, record payroll.SalaryRecord, override bool) (payroll.Outcome, error) {
	q := GetQuerier(ctx, r.db)

	breakdown, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode salary record: %w", err)
	}

	insert := `
		INSERT INTO salary_records (
			id, employee_id, month, policy_version, monthly_salary,
			total_earnings, total_deductions, net_salary, ctc, closing_balance, breakdown
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	args := []any{
		record.ID, record.EmployeeID, record.Month.String(), record.PolicyVersion, record.MonthlySalary,
		record.TotalEarnings, record.TotalDeductions, record.NetSalary, record.CTC,
		record.Leave.ClosingBalance, breakdown,
	}

	if !override {
		tag, err := q.Exec(ctx, insert+` ON CONFLICT (employee_id, month) DO NOTHING`, args...)
		if err != nil {
			return "", storeError("insert salary record", err)
		}
		if tag.RowsAffected() == 0 {
			return payroll.OutcomeSkipped, nil
		}
		return payroll.OutcomeInserted, nil
	}

	// xmax is zero only for a freshly inserted row.
	query := insert + `
		ON CONFLICT (employee_id, month) DO UPDATE SET
			policy_version = EXCLUDED.policy_version,
			monthly_salary = EXCLUDED.monthly_salary,
			total_earnings = EXCLUDED.total_earnings,
			total_deductions = EXCLUDED.total_deductions,
			net_salary = EXCLUDED.net_salary,
			ctc = EXCLUDED.ctc,
			closing_balance = EXCLUDED.closing_balance,
			breakdown = EXCLUDED.breakdown,
			updated_at = NOW()
		RETURNING (xmax = 0)
	`
	var inserted bool
	if err := q.QueryRow(ctx, query, args...).Scan(&inserted); err != nil {
		return "", storeError("upsert salary record", err)
	}
	if inserted {
		return payroll.OutcomeInserted, nil
	}
	return payroll.OutcomeReplaced, nil
}

const salaryColumns = `id, breakdown, created_at, updated_at`

func scanSalaryRecord(row pgx.Row) (payroll.SalaryRecord, error) {
	var (
		rec       payroll.SalaryRecord
		id        string
		breakdown []byte
	)
	if err := row.Scan(&id, &breakdown, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return payroll.SalaryRecord{}, err
	}

	createdAt, updatedAt := rec.CreatedAt, rec.UpdatedAt
	if err := json.Unmarshal(breakdown, &rec); err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to decode salary record %s: %w", id, err)
	}
	rec.ID, rec.CreatedAt, rec.UpdatedAt = id, createdAt, updatedAt
	return rec, nil
}

// Get implements payroll.SalaryRepository.
func (r *salaryRepository) Get(ctx context.Context, employeeID string, month period.Period) (payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryColumns + ` FROM salary_records WHERE employee_id = $1 AND month = $2`

	rec, err := scanSalaryRecord(q.QueryRow(ctx, query, employeeID, month.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
		}
		return payroll.SalaryRecord{}, storeError("get salary record", err)
	}
	return rec, nil
}

// ListByMonth implements payroll.SalaryRepository.
func (r *salaryRepository) ListByMonth(ctx context.Context, month period.Period) ([]payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryColumns + ` FROM salary_records WHERE month = $1 ORDER BY employee_id`

	rows, err := q.Query(ctx, query, month.String())
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
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryColumns + ` FROM salary_records
		WHERE employee_id = $1 AND month < $2
		ORDER BY month DESC
		LIMIT 1`

	rec, err := scanSalaryRecord(q.QueryRow(ctx, query, employeeID, month.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
		}
		return payroll.SalaryRecord{}, storeError("get latest salary record", err)
	}
	return rec, nil
}

// ListLatestBefore implements payroll.SalaryRepository.
func (r *salaryRepository) ListLatestBefore(ctx context.Context, month period.Period) ([]payroll.SalaryRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT DISTINCT ON (employee_id) ` + salaryColumns + ` FROM salary_records
		WHERE month < $1
		ORDER BY employee_id, month DESC`

	rows, err := q.Query(ctx, query, month.String())
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
