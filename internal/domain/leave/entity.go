package leave

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one employee-month of the leave and loss-of-pay ledger.
// ClosingBalance of month N is the OpeningBalance of month N+1.
type LedgerEntry struct {
	EmployeeID     string          `json:"employee_id"`
	Month          period.Period   `json:"month"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Accrued        decimal.Decimal `json:"accrued"`
	LeaveTaken     decimal.Decimal `json:"leave_taken"`

	ConcessionDays   decimal.Decimal `json:"concession_days"`
	ConcessionAmount decimal.Decimal `json:"concession_amount"`

	// Attendance-shortfall LOP.
	LOPDays      decimal.Decimal `json:"lop_days"`
	LOPDeduction decimal.Decimal `json:"lop_deduction"`

	// LOP from declared leave exceeding the available balance.
	DeclaredLOPDays      decimal.Decimal `json:"declared_lop_days"`
	DeclaredLOPDeduction decimal.Decimal `json:"declared_lop_deduction"`

	EncashedDays     decimal.Decimal `json:"encashed_days"`
	EncashmentAmount decimal.Decimal `json:"encashment_amount"`

	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// TotalLOPDeduction sums both LOP sources.
func (e LedgerEntry) TotalLOPDeduction() decimal.Decimal {
	return e.LOPDeduction.Add(e.DeclaredLOPDeduction)
}

// TotalLOPDays sums both LOP sources.
func (e LedgerEntry) TotalLOPDays() decimal.Decimal {
	return e.LOPDays.Add(e.DeclaredLOPDays)
}
