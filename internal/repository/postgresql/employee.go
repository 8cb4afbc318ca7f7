package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/jackc/pgx/v5"
)

type EmployeeRepository struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, name, department, role, fixed_salary, revised_salary, join_date, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID, &e.Name, &e.Department, &e.Role, &e.FixedSalary, &e.RevisedSalary,
		&e.JoinDate, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// GetByID implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	e, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, storeError("get employee", err)
	}
	return e, nil
}

// GetAll implements employee.EmployeeRepository.
func (r *EmployeeRepository) GetAll(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id`

	rows, err := q.Query(ctx, query)
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
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (id, name, department, role, fixed_salary, revised_salary, join_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			department = EXCLUDED.department,
			role = EXCLUDED.role,
			fixed_salary = EXCLUDED.fixed_salary,
			revised_salary = EXCLUDED.revised_salary,
			join_date = EXCLUDED.join_date,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		e.ID, e.Name, e.Department, e.Role, e.FixedSalary, e.RevisedSalary, period.DateKey(e.JoinDate),
	)
	if err != nil {
		return storeError("save employee", err)
	}
	return nil
}

// SaveAll imports a roster atomically. Any failing row rolls back the whole import.
func (r *EmployeeRepository) SaveAll(ctx context.Context, employees []employee.Employee) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		for _, e := range employees {
			if err := r.Save(ctx, e); err != nil {
				return fmt.Errorf("employee %s: %w", e.ID, err)
			}
		}
		return nil
	})
}
