package employee

import "context"

// EmployeeRepository is the read side of the employee master.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	GetAll(ctx context.Context) ([]Employee, error)
}
