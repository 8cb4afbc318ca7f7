package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

type EmployeeRepository struct {
	db *database.SQLite
}

func NewEmployeeRepository(db *database.SQLite) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, name, department, role, fixed_salary, revised_salary, join_date, created_at, updated_at`

func scanEmployee(row scanner) (employee.Employee, error) {
	var e employee.Employee
	var revised decimal.NullDecimal
	var joinDate, createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.Name, &e.Department, &e.Role, &e.FixedSalary, &revised, &joinDate, &createdAt, &updatedAt)
	if err != nil {
		return employee.Employee{}, err
	}
	if revised.Valid {
		e.RevisedSalary = &revised.Decimal
	}
	if e.JoinDate, err = parseDate(joinDate); err != nil {
		return employee.Employee{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return employee.Employee{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, storeError("get employee", err)
	}
	return e, nil
}

// GetAll implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetAll(ctx context.Context) ([]employee.Employee, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, storeError("list employees", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, storeError("scan employee", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list employees", err)
	}
	return employees, nil
}

// Save inserts or updates an employee master row.
func (r *EmployeeRepository) Save(ctx context.Context, e employee.Employee) error {
	var revised decimal.NullDecimal
	if e.RevisedSalary != nil {
		revised = decimal.NewNullDecimal(*e.RevisedSalary)
	}

	ts := now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, department, role, fixed_salary, revised_salary, join_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			department = excluded.department,
			role = excluded.role,
			fixed_salary = excluded.fixed_salary,
			revised_salary = excluded.revised_salary,
			join_date = excluded.join_date,
			updated_at = excluded.updated_at
	`, e.ID, e.Name, e.Department, e.Role, e.FixedSalary.String(), revised, period.DateKey(e.JoinDate), ts, ts)
	if err != nil {
		return storeError("save employee", err)
	}
	return nil
}
