package employee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMonthlySalary(t *testing.T) {
	revised := decimal.NewFromInt(42000)
	zero := decimal.Zero

	cases := []struct {
		name   string
		emp    Employee
		want   string
		source string
	}{
		{"fixed only", Employee{FixedSalary: decimal.NewFromInt(30000)}, "30000", "fixed_salary"},
		{"revised wins", Employee{FixedSalary: decimal.NewFromInt(30000), RevisedSalary: &revised}, "42000", "revised_salary"},
		{"zero revised ignored", Employee{FixedSalary: decimal.NewFromInt(30000), RevisedSalary: &zero}, "30000", "fixed_salary"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.emp.MonthlySalary().String())
			assert.Equal(t, c.source, c.emp.SalarySource())
		})
	}
}
