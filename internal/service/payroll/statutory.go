package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/shopspring/decimal"
)

var monthsPerYear = decimal.NewFromInt(12)

// StatutoryCalculator computes PF, ESI, MLWF and monthly income tax.
type StatutoryCalculator struct {
	rules policy.StatutoryRules
	slabs []policy.TaxSlab
}

func NewStatutoryCalculator(tables policy.Tables) *StatutoryCalculator {
	return &StatutoryCalculator{rules: tables.Statutory, slabs: tables.TaxSlabs}
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}

// PF is computed on basic plus DA, capped at the PF ceiling. Employer matches the employee share.
func (s *StatutoryCalculator) PF(basic, da decimal.Decimal) (eligible, employee, employer, admin decimal.Decimal) {
	eligible = decimal.Min(basic.Add(da), s.rules.PFCeiling)
	if eligible.IsNegative() {
		eligible = decimal.Zero
	}
	employee = percentOf(eligible, s.rules.PFRate)
	return eligible, employee, employee, percentOf(eligible, s.rules.PFAdminRate)
}

// ESI applies only while gross is at or below the ceiling.
func (s *StatutoryCalculator) ESI(gross decimal.Decimal) (employee, employer decimal.Decimal) {
	if gross.GreaterThan(s.rules.ESICeiling) || !gross.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	return percentOf(gross, s.rules.ESIEmployeeRate), percentOf(gross, s.rules.ESIEmployerRate)
}

// MLWF is a flat contribution on each side once gross exceeds the threshold.
func (s *StatutoryCalculator) MLWF(gross decimal.Decimal) (employee, employer decimal.Decimal) {
	if !gross.GreaterThan(s.rules.MLWFThreshold) {
		return decimal.Zero, decimal.Zero
	}
	return s.rules.MLWFEmployee, s.rules.MLWFEmployer
}

// TaxableAnnual annualizes monthly gross and subtracts the standard and other deductions.
func (s *StatutoryCalculator) TaxableAnnual(monthlyGross, otherDeductions decimal.Decimal) decimal.Decimal {
	taxable := monthlyGross.Mul(monthsPerYear).Sub(s.rules.StandardDeduction).Sub(otherDeductions)
	return decimal.Max(decimal.Zero, taxable)
}

// AnnualTax sums the contribution of every bracket the taxable amount reaches.
func AnnualTax(slabs []policy.TaxSlab, taxable decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	lower := decimal.Zero
	for _, slab := range slabs {
		if !taxable.GreaterThan(lower) {
			break
		}
		top := taxable
		if slab.UpperBound != nil && slab.UpperBound.LessThan(taxable) {
			top = *slab.UpperBound
		}
		tax = tax.Add(top.Sub(lower).Mul(slab.Rate).Div(hundred))
		if slab.UpperBound == nil {
			break
		}
		lower = *slab.UpperBound
	}
	return tax
}

// MonthlyTax is the annual tax spread over twelve months.
func (s *StatutoryCalculator) MonthlyTax(taxableAnnual decimal.Decimal) decimal.Decimal {
	return AnnualTax(s.slabs, taxableAnnual).Div(monthsPerYear).Round(2)
}

// Compute derives every statutory line from the earning components.
func (s *StatutoryCalculator) Compute(basic, da, gross, otherTaxDeductions decimal.Decimal) payroll.Statutory {
	var out payroll.Statutory
	out.PFEligible, out.EmployeePF, out.EmployerPF, out.PFAdminCharges = s.PF(basic, da)
	out.EmployeeESI, out.EmployerESI = s.ESI(gross)
	out.EmployeeMLWF, out.EmployerMLWF = s.MLWF(gross)
	out.TaxableAnnual = s.TaxableAnnual(gross, otherTaxDeductions)
	out.IncomeTax = s.MonthlyTax(out.TaxableAnnual)
	return out
}

// Apply fills the context's statutory section from its earnings.
func (s *StatutoryCalculator) Apply(c *payroll.ComputationContext) {
	c.Statutory = s.Compute(c.Earnings.Basic, c.Earnings.DA, c.Earnings.Gross, c.Adjustments.OtherTaxDeductions)
}
