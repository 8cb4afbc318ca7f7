package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is a row of the employee master. Salary changes only arrive through an appraisal,
// which sets RevisedSalary.
type Employee struct {
	ID            string `validate:"required"`
	Name          string `validate:"required"`
	Department    string
	Role          string
	FixedSalary   decimal.Decimal
	RevisedSalary *decimal.Decimal
	JoinDate      time.Time `validate:"required"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MonthlySalary returns the revised salary when set and positive, otherwise the fixed salary.
func (e Employee) MonthlySalary() decimal.Decimal {
	if e.RevisedSalary != nil && e.RevisedSalary.IsPositive() {
		return *e.RevisedSalary
	}
	return e.FixedSalary
}

// SalarySource names the field MonthlySalary was taken from.
func (e Employee) SalarySource() string {
	if e.RevisedSalary != nil && e.RevisedSalary.IsPositive() {
		return "revised_salary"
	}
	return "fixed_salary"
}
