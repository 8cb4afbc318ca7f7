package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BonusCalculator computes the festival and Tuesday bonuses.
type BonusCalculator struct {
	tables policy.Tables
}

func NewBonusCalculator(tables policy.Tables) *BonusCalculator {
	return &BonusCalculator{tables: tables}
}

// FestivalEligible reports whether an employee who joined on joinDate has served long enough
// before the first day of month.
func (b *BonusCalculator) FestivalEligible(joinDate time.Time, month period.Period) bool {
	loc := b.tables.Loc()
	cutoff := month.Start(loc).AddDate(0, 0, -b.tables.Bonus.FestivalEligibilityDays)
	return !period.DateOnly(joinDate.In(loc)).After(cutoff)
}

// Festival returns the festival bonus for month. ok is false when the schedule has no entry.
func (b *BonusCalculator) Festival(salary decimal.Decimal, joinDate time.Time, month period.Period) (bonus payroll.Bonuses, ok bool) {
	bonus = payroll.Bonuses{FestivalPercent: decimal.Zero, Festival: decimal.Zero, Tuesday: decimal.Zero}

	entry, ok := b.tables.Festival(month.Month)
	if !ok {
		return bonus, false
	}
	bonus.FestivalName = entry.Name
	bonus.FestivalPercent = entry.Percent

	if salary.IsPositive() && b.FestivalEligible(joinDate, month) {
		bonus.Festival = salary.Mul(entry.Percent).Div(hundred).Round(2)
	}
	return bonus, true
}

// Tuesday pays one working-day rate per Tuesday attended. Zero when there are no working days.
func (b *BonusCalculator) Tuesday(salary decimal.Decimal, workingDays, tuesdaysAttended int) decimal.Decimal {
	if workingDays <= 0 || !salary.IsPositive() {
		return decimal.Zero
	}
	return salary.Div(decimal.NewFromInt(int64(workingDays))).
		Mul(decimal.NewFromInt(int64(tuesdaysAttended))).
		Round(2)
}

// Apply fills the context's bonus section.
func (b *BonusCalculator) Apply(c *payroll.ComputationContext) {
	bonus, ok := b.Festival(c.Salary, c.Employee.JoinDate, c.Month)
	if !ok {
		c.Warn(payroll.WarnMissingFestivalEntry, "no festival bonus entry for %s, treated as 0%%", c.Month.Month)
	}
	bonus.Tuesday = b.Tuesday(c.Salary, c.Summary.WorkingDays, c.Summary.TuesdaysAttended)
	c.Bonuses = bonus
}
