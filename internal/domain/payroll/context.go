package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// ComputationContext carries one employee-month through the pipeline.
// Each stage reads what earlier stages filled in and writes its own section.
type ComputationContext struct {
	Employee employee.Employee
	Month    period.Period
	Tables   policy.Tables
	Now      time.Time

	// Inputs loaded at batch start.
	Events         []attendance.Event
	Adjustments    Adjustments
	OpeningBalance decimal.Decimal

	Salary       decimal.Decimal
	SalarySource string

	Days      []attendance.DailyRecord
	Summary   attendance.MonthlySummary
	Ledger    leave.LedgerEntry
	Bonuses   Bonuses
	Earnings  Earnings
	Statutory Statutory

	Warnings []Warning
}

func (c *ComputationContext) Warn(code WarningCode, format string, args ...any) {
	c.Warnings = append(c.Warnings, NewWarning(code, format, args...))
}

// HasWarning reports whether a warning with code was recorded.
func (c *ComputationContext) HasWarning(code WarningCode) bool {
	for _, w := range c.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
