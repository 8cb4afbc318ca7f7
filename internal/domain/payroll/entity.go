package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// Outcome of a SalaryRecord upsert.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeReplaced Outcome = "replaced"
)

// AttendanceCounts is the monthly attendance snapshot stored with a record.
type AttendanceCounts struct {
	FullDays            int             `json:"full_days"`
	HalfDays            int             `json:"half_days"`
	AbsentDays          int             `json:"absent_days"`
	PendingDays         int             `json:"pending_days"`
	LateMarks           int             `json:"late_marks"`
	TuesdaysAttended    int             `json:"tuesdays_attended"`
	WorkingDays         int             `json:"working_days"`
	DaysInMonth         int             `json:"days_in_month"`
	ExtraHoursTotal     decimal.Decimal `json:"extra_hours_total"`
	EffectiveDaysWorked decimal.Decimal `json:"effective_days_worked"`
}

// Earnings are the salary components before LOP and bonuses.
type Earnings struct {
	Basic      decimal.Decimal            `json:"basic"`
	DA         decimal.Decimal            `json:"da"`
	HRA        decimal.Decimal            `json:"hra"`
	Allowance  decimal.Decimal            `json:"allowance"`
	Named      map[string]decimal.Decimal `json:"named_allowances,omitempty"`
	HourlyRate decimal.Decimal            `json:"hourly_rate"`
	Overtime   decimal.Decimal            `json:"overtime_allowance"`
	Gross      decimal.Decimal            `json:"gross"`
}

type Bonuses struct {
	FestivalName    string          `json:"festival_name,omitempty"`
	FestivalPercent decimal.Decimal `json:"festival_percent"`
	Festival        decimal.Decimal `json:"festival"`
	Tuesday         decimal.Decimal `json:"tuesday"`
}

// Statutory holds both sides of PF, ESI and MLWF plus the income tax computation.
type Statutory struct {
	PFEligible     decimal.Decimal `json:"pf_eligible"`
	EmployeePF     decimal.Decimal `json:"employee_pf"`
	EmployerPF     decimal.Decimal `json:"employer_pf"`
	PFAdminCharges decimal.Decimal `json:"pf_admin_charges"`
	EmployeeESI    decimal.Decimal `json:"employee_esi"`
	EmployerESI    decimal.Decimal `json:"employer_esi"`
	EmployeeMLWF   decimal.Decimal `json:"employee_mlwf"`
	EmployerMLWF   decimal.Decimal `json:"employer_mlwf"`
	TaxableAnnual  decimal.Decimal `json:"taxable_annual"`
	IncomeTax      decimal.Decimal `json:"income_tax"`
}

// EmployerCost sums the employer-side contributions that make up CTC on top of earnings.
func (s Statutory) EmployerCost() decimal.Decimal {
	return s.EmployerPF.Add(s.EmployerESI).Add(s.EmployerMLWF).Add(s.PFAdminCharges)
}

type Deductions struct {
	EmployeePF      decimal.Decimal `json:"employee_pf"`
	EmployeeESI     decimal.Decimal `json:"employee_esi"`
	EmployeeMLWF    decimal.Decimal `json:"employee_mlwf"`
	IncomeTax       decimal.Decimal `json:"income_tax"`
	LateMarkPenalty decimal.Decimal `json:"late_mark_penalty"`
	Advance         decimal.Decimal `json:"advance"`
	Loan            decimal.Decimal `json:"loan"`
	Fine            decimal.Decimal `json:"fine"`
	Other           decimal.Decimal `json:"other"`
}

func (d Deductions) Total() decimal.Decimal {
	return decimal.Sum(d.EmployeePF, d.EmployeeESI, d.EmployeeMLWF, d.IncomeTax,
		d.LateMarkPenalty, d.Advance, d.Loan, d.Fine, d.Other)
}

// SalaryRecord is the finalized payroll of one (employee, month). The pair is unique.
type SalaryRecord struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	EmployeeName    string            `json:"employee_name"`
	Month           period.Period     `json:"month"`
	PolicyVersion   string            `json:"policy_version"`
	SalarySource    string            `json:"salary_source"`
	MonthlySalary   decimal.Decimal   `json:"monthly_salary"`
	Attendance      AttendanceCounts  `json:"attendance"`
	Leave           leave.LedgerEntry `json:"leave"`
	Earnings        Earnings          `json:"earnings"`
	Bonuses         Bonuses           `json:"bonuses"`
	Statutory       Statutory         `json:"statutory"`
	Deductions      Deductions        `json:"deductions"`
	TotalEarnings   decimal.Decimal   `json:"total_earnings"`
	TotalDeductions decimal.Decimal   `json:"total_deductions"`
	NetSalary       decimal.Decimal   `json:"net_salary"`
	CTC             decimal.Decimal   `json:"ctc"`
	AuditNote       []Warning         `json:"audit_note"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Billable is false when both gross earnings and net salary are non-positive.
func (r SalaryRecord) Billable() bool {
	return r.Earnings.Gross.IsPositive() || r.NetSalary.IsPositive()
}

// Adjustments are the manual per-month inputs. A missing row means all zero.
type Adjustments struct {
	EmployeeID         string                     `json:"employee_id"`
	Month              period.Period              `json:"month"`
	LeaveTaken         decimal.Decimal            `json:"leave_taken"`
	Advance            decimal.Decimal            `json:"advance"`
	Loan               decimal.Decimal            `json:"loan"`
	Fine               decimal.Decimal            `json:"fine"`
	Other              decimal.Decimal            `json:"other"`
	OtherTaxDeductions decimal.Decimal            `json:"other_tax_deductions"`
	Allowances         map[string]decimal.Decimal `json:"allowances,omitempty"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

type EmployeeStatus string

const (
	StatusInserted EmployeeStatus = "inserted"
	StatusReplaced EmployeeStatus = "replaced"
	StatusSkipped  EmployeeStatus = "skipped"
	StatusError    EmployeeStatus = "error"
	StatusAborted  EmployeeStatus = "aborted"
)

const (
	SkipRecordExists     = "record_exists"
	SkipNoBillableData   = "no_billable_data"
	SkipEmployeeNotFound = "employee_not_found"
)

// EmployeeResult is one line of a batch run.
type EmployeeResult struct {
	EmployeeID string           `json:"employee_id"`
	Status     EmployeeStatus   `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	NetSalary  *decimal.Decimal `json:"net_salary,omitempty"`
	Warnings   []Warning        `json:"warnings,omitempty"`
}

type BatchResult struct {
	Month    period.Period    `json:"month"`
	Override bool             `json:"override"`
	Aborted  bool             `json:"aborted"`
	Results  []EmployeeResult `json:"results"`
	Inserted int              `json:"inserted"`
	Replaced int              `json:"replaced"`
	Skipped  int              `json:"skipped"`
	Failed   int              `json:"failed"`
	Halted   int              `json:"halted"`
}

// Tally recomputes the counters from Results.
func (b *BatchResult) Tally() {
	b.Inserted, b.Replaced, b.Skipped, b.Failed, b.Halted = 0, 0, 0, 0, 0
	for _, r := range b.Results {
		switch r.Status {
		case StatusInserted:
			b.Inserted++
		case StatusReplaced:
			b.Replaced++
		case StatusSkipped:
			b.Skipped++
		case StatusError:
			b.Failed++
		case StatusAborted:
			b.Halted++
		}
	}
}
