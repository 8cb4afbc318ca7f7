package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	attendancesvc "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	leavesvc "github.com/cmlabs-hris/hris-payroll-engine/internal/service/leave"
	"github.com/shopspring/decimal"
)

// Pipeline runs one employee-month through classification, aggregation, the leave ledger,
// bonuses, statutory deductions and finalization, in that order.
type Pipeline struct {
	tables     policy.Tables
	classifier *attendancesvc.Classifier
	aggregator *attendancesvc.Aggregator
	ledger     *leavesvc.Ledger
	bonus      *BonusCalculator
	statutory  *StatutoryCalculator
	finalizer  *Finalizer
}

func NewPipeline(tables policy.Tables) *Pipeline {
	return &Pipeline{
		tables:     tables,
		classifier: attendancesvc.NewClassifier(tables),
		aggregator: attendancesvc.NewAggregator(tables),
		ledger:     leavesvc.NewLedger(tables.Leave),
		bonus:      NewBonusCalculator(tables),
		statutory:  NewStatutoryCalculator(tables),
		finalizer:  NewFinalizer(tables),
	}
}

// Run computes the SalaryRecord for c. Errors wrap payroll.ErrValidation and concern this
// record only.
func (p *Pipeline) Run(c *payroll.ComputationContext) (payroll.SalaryRecord, error) {
	c.Tables = p.tables

	if err := validator.Struct(c.Employee); err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("%w: employee %s: %w", payroll.ErrValidation, c.Employee.ID, err)
	}

	c.SalarySource = c.Employee.SalarySource()
	c.Salary = c.Employee.MonthlySalary()
	if !c.Salary.IsPositive() {
		c.Warn(payroll.WarnZeroSalary, "monthly salary is %s, monetary fields set to 0", c.Salary)
		c.Salary = decimal.Zero
	}

	if p.tables.Holidays == nil {
		c.Warn(payroll.WarnMissingHolidayCalendar, "no holiday calendar loaded, only Tuesdays excluded from working days")
	}

	days, err := attendancesvc.ClassifyAll(p.classifier, c.Events, c.Now)
	if err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("%w: %w", payroll.ErrValidation, err)
	}
	c.Days = days
	c.Summary = p.aggregator.Aggregate(c.Month, days)

	for _, d := range c.Summary.UnclosedDates {
		c.Warn(payroll.WarnUnclosedSession, "unclosed session on %s counted as absent", period.DateKey(d))
	}
	if c.Summary.PendingDays > 0 {
		c.Warn(payroll.WarnPendingSessions, "%d open session(s) still inside the grace window excluded", c.Summary.PendingDays)
	}
	if c.Summary.WorkingDays == 0 {
		c.Warn(payroll.WarnNoWorkingDays, "month has no working days, Tuesday bonus and overtime set to 0")
	}

	c.Ledger, err = p.ledger.Compute(leavesvc.LedgerInput{
		EmployeeID:          c.Employee.ID,
		Month:               c.Month,
		Salary:              c.Salary,
		OpeningBalance:      c.OpeningBalance,
		LeaveTaken:          c.Adjustments.LeaveTaken,
		WorkingDays:         c.Summary.WorkingDays,
		DaysInMonth:         c.Summary.DaysInMonth,
		EffectiveDaysWorked: c.Summary.EffectiveDaysWorked,
	})
	if err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("%w: %w", payroll.ErrValidation, err)
	}
	if c.Ledger.DeclaredLOPDays.IsPositive() {
		c.Warn(payroll.WarnDeclaredLeaveOverrun, "declared leave exceeds balance by %s day(s)", c.Ledger.DeclaredLOPDays.Round(2))
	}

	p.bonus.Apply(c)
	p.finalizer.ApplyEarnings(c)
	p.statutory.Apply(c)

	return p.finalizer.Record(c), nil
}

// newContext seeds a ComputationContext with the inputs loaded at batch start.
func newContext(emp employee.Employee, month period.Period, in batchInputs) *payroll.ComputationContext {
	opening, from := in.openingBalance(emp.ID)
	c := &payroll.ComputationContext{
		Employee:       emp,
		Month:          month,
		Now:            in.now,
		Events:         in.events[emp.ID],
		Adjustments:    in.adjustmentsFor(emp.ID, month),
		OpeningBalance: opening,
	}
	if !from.IsZero() && from != month.Previous() {
		c.Warn(payroll.WarnStaleOpeningBalance, "opening balance %s carried from %s, no record for %s",
			opening.Round(2), from, month.Previous())
	}
	return c
}
