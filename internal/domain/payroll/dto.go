package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RUN DTOs ==========

type RunBatchRequest struct {
	Month       period.Period `json:"month"`
	EmployeeIDs []string      `json:"employee_ids,omitempty" validate:"omitempty,dive,required"`
	Override    bool          `json:"override"`
}

func (r *RunBatchRequest) Validate() error {
	errs, err := validator.Merge(nil, validator.Struct(r))
	if err != nil {
		return err
	}
	if r.Month.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month is required (YYYY-MM)"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type FinalizeRequest struct {
	EmployeeID string        `json:"employee_id" validate:"required"`
	Month      period.Period `json:"month"`
	Override   bool          `json:"override"`
}

func (r *FinalizeRequest) Validate() error {
	errs, err := validator.Merge(nil, validator.Struct(r))
	if err != nil {
		return err
	}
	if r.Month.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month is required (YYYY-MM)"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type FinalizeResponse struct {
	Outcome Outcome       `json:"outcome"`
	Reason  string        `json:"reason,omitempty"`
	Record  *SalaryRecord `json:"record,omitempty"`
}

// ========== ADJUSTMENT DTOs ==========

type AdjustmentsRequest struct {
	EmployeeID         string                     `json:"-" validate:"required"`
	Month              period.Period              `json:"-"`
	LeaveTaken         decimal.Decimal            `json:"leave_taken"`
	Advance            decimal.Decimal            `json:"advance"`
	Loan               decimal.Decimal            `json:"loan"`
	Fine               decimal.Decimal            `json:"fine"`
	Other              decimal.Decimal            `json:"other"`
	OtherTaxDeductions decimal.Decimal            `json:"other_tax_deductions"`
	Allowances         map[string]decimal.Decimal `json:"allowances,omitempty"`
}

func (r *AdjustmentsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if r.Month.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month is required (YYYY-MM)"})
	}

	amounts := map[string]decimal.Decimal{
		"leave_taken":          r.LeaveTaken,
		"advance":              r.Advance,
		"loan":                 r.Loan,
		"fine":                 r.Fine,
		"other":                r.Other,
		"other_tax_deductions": r.OtherTaxDeductions,
	}
	for field, v := range amounts {
		if v.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
		}
	}
	for name, v := range r.Allowances {
		if validator.IsEmpty(name) {
			errs = append(errs, validator.ValidationError{Field: "allowances", Message: "allowance name is required"})
		}
		if v.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: "allowances." + name, Message: "must be non-negative"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r AdjustmentsRequest) ToAdjustments() Adjustments {
	return Adjustments{
		EmployeeID:         r.EmployeeID,
		Month:              r.Month,
		LeaveTaken:         r.LeaveTaken,
		Advance:            r.Advance,
		Loan:               r.Loan,
		Fine:               r.Fine,
		Other:              r.Other,
		OtherTaxDeductions: r.OtherTaxDeductions,
		Allowances:         r.Allowances,
	}
}
