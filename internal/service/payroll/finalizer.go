package payroll

import (
	"sort"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/shopspring/decimal"
)

var hoursPerDay = decimal.NewFromInt(8)

// Finalizer splits the salary into components and assembles the SalaryRecord totals.
type Finalizer struct {
	split   policy.SalarySplit
	penalty policy.LatePenalty
}

func NewFinalizer(tables policy.Tables) *Finalizer {
	return &Finalizer{split: tables.Split, penalty: tables.LatePenalty}
}

// Earnings splits salary by the policy percentages and adds named allowances and overtime.
// Overtime pays extra hours at salary / (8 x working days).
func (f *Finalizer) Earnings(salary decimal.Decimal, summary attendance.MonthlySummary, allowances map[string]decimal.Decimal) payroll.Earnings {
	e := payroll.Earnings{
		Basic:      percentOf(salary, f.split.BasicPercent),
		DA:         percentOf(salary, f.split.DAPercent),
		HRA:        percentOf(salary, f.split.HRAPercent),
		Allowance:  percentOf(salary, f.split.AllowancePercent),
		HourlyRate: decimal.Zero,
		Overtime:   decimal.Zero,
	}

	if summary.WorkingDays > 0 && salary.IsPositive() {
		rate := salary.Div(hoursPerDay.Mul(decimal.NewFromInt(int64(summary.WorkingDays))))
		e.HourlyRate = rate.Round(2)
		e.Overtime = summary.ExtraHoursTotal.Mul(rate).Round(2)
	}

	named := decimal.Zero
	if len(allowances) > 0 {
		e.Named = make(map[string]decimal.Decimal, len(allowances))
		names := make([]string, 0, len(allowances))
		for name := range allowances {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			amount := allowances[name].Round(2)
			e.Named[name] = amount
			named = named.Add(amount)
		}
	}

	e.Gross = decimal.Sum(e.Basic, e.DA, e.HRA, e.Allowance, named, e.Overtime)
	return e
}

// LateMarkPenalty deducts daysPerUnit working days for every full block of late marks.
func (f *Finalizer) LateMarkPenalty(salary decimal.Decimal, lateMarks, workingDays int) decimal.Decimal {
	if !f.penalty.Enabled || f.penalty.MarksPerUnit <= 0 || workingDays <= 0 || !salary.IsPositive() {
		return decimal.Zero
	}
	units := decimal.NewFromInt(int64(lateMarks / f.penalty.MarksPerUnit))
	days := units.Mul(f.penalty.DaysPerUnit)
	return days.Mul(salary).Div(decimal.NewFromInt(int64(workingDays))).Round(2)
}

// ApplyEarnings fills the context's earnings section.
func (f *Finalizer) ApplyEarnings(c *payroll.ComputationContext) {
	c.Earnings = f.Earnings(c.Salary, c.Summary, c.Adjustments.Allowances)
}

// Record assembles the SalaryRecord from a fully computed context. Every line item is already
// rounded to two decimals, so the totals are exact sums.
func (f *Finalizer) Record(c *payroll.ComputationContext) payroll.SalaryRecord {
	adj := c.Adjustments
	deductions := payroll.Deductions{
		EmployeePF:      c.Statutory.EmployeePF,
		EmployeeESI:     c.Statutory.EmployeeESI,
		EmployeeMLWF:    c.Statutory.EmployeeMLWF,
		IncomeTax:       c.Statutory.IncomeTax,
		LateMarkPenalty: f.LateMarkPenalty(c.Salary, c.Summary.LateMarks, c.Summary.WorkingDays),
		Advance:         adj.Advance.Round(2),
		Loan:            adj.Loan.Round(2),
		Fine:            adj.Fine.Round(2),
		Other:           adj.Other.Round(2),
	}

	totalEarnings := c.Earnings.Gross.
		Sub(c.Ledger.TotalLOPDeduction()).
		Add(c.Ledger.ConcessionAmount).
		Add(c.Ledger.EncashmentAmount).
		Add(c.Bonuses.Festival).
		Add(c.Bonuses.Tuesday)
	totalDeductions := deductions.Total()

	warnings := c.Warnings
	if warnings == nil {
		warnings = []payroll.Warning{}
	}

	return payroll.SalaryRecord{
		EmployeeID:      c.Employee.ID,
		EmployeeName:    c.Employee.Name,
		Month:           c.Month,
		PolicyVersion:   c.Tables.Version,
		SalarySource:    c.SalarySource,
		MonthlySalary:   c.Salary,
		Attendance:      countsOf(c.Summary),
		Leave:           c.Ledger,
		Earnings:        c.Earnings,
		Bonuses:         c.Bonuses,
		Statutory:       c.Statutory,
		Deductions:      deductions,
		TotalEarnings:   totalEarnings,
		TotalDeductions: totalDeductions,
		NetSalary:       totalEarnings.Sub(totalDeductions),
		CTC:             totalEarnings.Add(c.Statutory.EmployerCost()),
		AuditNote:       warnings,
		CreatedAt:       c.Now,
		UpdatedAt:       c.Now,
	}
}

func countsOf(s attendance.MonthlySummary) payroll.AttendanceCounts {
	return payroll.AttendanceCounts{
		FullDays:            s.FullDays,
		HalfDays:            s.HalfDays,
		AbsentDays:          s.AbsentDays,
		PendingDays:         s.PendingDays,
		LateMarks:           s.LateMarks,
		TuesdaysAttended:    s.TuesdaysAttended,
		WorkingDays:         s.WorkingDays,
		DaysInMonth:         s.DaysInMonth,
		ExtraHoursTotal:     s.ExtraHoursTotal,
		EffectiveDaysWorked: s.EffectiveDaysWorked,
	}
}
