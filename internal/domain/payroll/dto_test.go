package payroll

import (
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatchRequestValidate(t *testing.T) {
	req := RunBatchRequest{Month: period.New(2024, time.March)}
	assert.NoError(t, req.Validate())

	req = RunBatchRequest{}
	var ve validator.ValidationErrors
	require.True(t, errors.As(req.Validate(), &ve))
	assert.Contains(t, ve.ToMap(), "month")
}

func TestAdjustmentsRequestValidate(t *testing.T) {
	req := AdjustmentsRequest{
		EmployeeID: "emp-1",
		Month:      period.New(2024, time.March),
		Advance:    decimal.NewFromInt(500),
		Allowances: map[string]decimal.Decimal{"travel": decimal.NewFromInt(200)},
	}
	require.NoError(t, req.Validate())

	req.Loan = decimal.NewFromInt(-1)
	req.Allowances["meal"] = decimal.NewFromInt(-5)
	var ve validator.ValidationErrors
	require.True(t, errors.As(req.Validate(), &ve))
	m := ve.ToMap()
	assert.Contains(t, m, "loan")
	assert.Contains(t, m, "allowances.meal")
}

func TestBatchResultTally(t *testing.T) {
	b := BatchResult{Results: []EmployeeResult{
		{Status: StatusInserted}, {Status: StatusInserted}, {Status: StatusReplaced},
		{Status: StatusSkipped}, {Status: StatusError}, {Status: StatusAborted},
	}}
	b.Tally()
	assert.Equal(t, 2, b.Inserted)
	assert.Equal(t, 1, b.Replaced)
	assert.Equal(t, 1, b.Skipped)
	assert.Equal(t, 1, b.Failed)
	assert.Equal(t, 1, b.Halted)
}

func TestDeductionsTotalAndBillable(t *testing.T) {
	d := Deductions{
		EmployeePF:   decimal.RequireFromString("1800"),
		EmployeeMLWF: decimal.RequireFromString("1"),
		Advance:      decimal.RequireFromString("250.50"),
	}
	assert.True(t, d.Total().Equal(decimal.RequireFromString("2051.50")))

	assert.False(t, SalaryRecord{}.Billable())
	assert.True(t, SalaryRecord{NetSalary: decimal.NewFromInt(1)}.Billable())
}
