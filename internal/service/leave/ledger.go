package leave

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// LedgerInput is what the ledger needs for one employee-month.
type LedgerInput struct {
	EmployeeID          string
	Month               period.Period
	Salary              decimal.Decimal
	OpeningBalance      decimal.Decimal
	LeaveTaken          decimal.Decimal
	WorkingDays         int
	DaysInMonth         int
	EffectiveDaysWorked decimal.Decimal
}

// balanceGrain is the finest fraction of a day a balance can hold. Policy inputs are in
// hundredths of a day and accrual is a twelfth of the annual limit, so every balance is a
// whole multiple of 1/1200 day.
var balanceGrain = decimal.NewFromInt(1200)

// snapDays removes the division residue from a day count by snapping it to balanceGrain.
func snapDays(d decimal.Decimal) decimal.Decimal {
	return d.Mul(balanceGrain).Round(0).Div(balanceGrain)
}

// Ledger computes accrual, concession, loss of pay and carry-forward.
type Ledger struct {
	rules policy.LeaveRules
}

func NewLedger(rules policy.LeaveRules) *Ledger {
	return &Ledger{rules: rules}
}

// Compute derives the month's LedgerEntry. Day balances keep full precision so that twelve
// accruals add up to the annual limit. Monetary fields are rounded to two decimals and are
// zero when the salary is not positive. The closing balance never goes below zero: leave taken
// beyond the available balance is charged once, as declared loss of pay.
func (l *Ledger) Compute(in LedgerInput) (leave.LedgerEntry, error) {
	if in.LeaveTaken.IsNegative() {
		return leave.LedgerEntry{}, leave.ErrNegativeLeaveTaken
	}
	if in.OpeningBalance.IsNegative() {
		return leave.LedgerEntry{}, leave.ErrNegativeBalance
	}
	if in.DaysInMonth <= 0 {
		return leave.LedgerEntry{}, fmt.Errorf("days in month must be positive, got %d", in.DaysInMonth)
	}

	entry := leave.LedgerEntry{
		EmployeeID:     in.EmployeeID,
		Month:          in.Month,
		OpeningBalance: in.OpeningBalance,
		Accrued:        l.rules.MonthlyAccrual(),
		LeaveTaken:     in.LeaveTaken,
	}

	shortfall := decimal.Max(decimal.Zero, decimal.NewFromInt(int64(in.WorkingDays)).Sub(in.EffectiveDaysWorked))

	entry.ConcessionDays = decimal.Zero
	if in.EffectiveDaysWorked.LessThan(l.rules.ConcessionThreshold) {
		entry.ConcessionDays = l.rules.ConcessionDays
	}
	entry.LOPDays = decimal.Max(decimal.Zero, shortfall.Sub(entry.ConcessionDays))

	available := snapDays(entry.OpeningBalance.Add(entry.Accrued))
	entry.DeclaredLOPDays = snapDays(decimal.Max(decimal.Zero, in.LeaveTaken.Sub(available)))

	remaining := snapDays(decimal.Max(decimal.Zero, available.Sub(in.LeaveTaken)))
	entry.ClosingBalance = decimal.Min(remaining, l.rules.CarryForwardLimit)
	entry.EncashedDays = decimal.Zero
	if l.rules.EncashmentEnabled && remaining.GreaterThan(l.rules.CarryForwardLimit) {
		entry.EncashedDays = snapDays(remaining.Sub(l.rules.CarryForwardLimit))
	}

	dailyRate := decimal.Zero
	workingDayRate := decimal.Zero
	if in.Salary.IsPositive() {
		dailyRate = in.Salary.Div(decimal.NewFromInt(int64(in.DaysInMonth)))
		if in.WorkingDays > 0 {
			workingDayRate = in.Salary.Div(decimal.NewFromInt(int64(in.WorkingDays)))
		}
	}

	entry.ConcessionAmount = entry.ConcessionDays.Mul(dailyRate).Round(2)
	entry.LOPDeduction = entry.LOPDays.Mul(dailyRate).Round(2)
	entry.DeclaredLOPDeduction = entry.DeclaredLOPDays.Mul(dailyRate).Round(2)
	entry.EncashmentAmount = entry.EncashedDays.Mul(workingDayRate).Round(2)

	return entry, nil
}
