package policy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate checks internal consistency of the tables.
func (t Tables) Validate() error {
	a := t.Attendance
	if !a.HalfDayHours.IsPositive() || a.FullDayHours.LessThan(a.HalfDayHours) {
		return ErrInvalidThresholds
	}

	if err := validateSlabs(t.TaxSlabs); err != nil {
		return err
	}

	split := []decimal.Decimal{t.Split.BasicPercent, t.Split.DAPercent, t.Split.HRAPercent, t.Split.AllowancePercent}
	sum := decimal.Zero
	for _, p := range split {
		if p.IsNegative() {
			return ErrInvalidSplit
		}
		sum = sum.Add(p)
	}
	if sum.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidSplit
	}

	s := t.Statutory
	for _, v := range []decimal.Decimal{
		s.PFCeiling, s.PFRate, s.PFAdminRate, s.ESICeiling, s.ESIEmployeeRate, s.ESIEmployerRate,
		s.MLWFThreshold, s.MLWFEmployee, s.MLWFEmployer, s.StandardDeduction,
		t.Leave.AnnualLimit, t.Leave.CarryForwardLimit, t.Leave.ConcessionDays, t.Leave.ConcessionThreshold,
	} {
		if v.IsNegative() {
			return ErrInvalidRate
		}
	}

	for m, f := range t.Festivals {
		if f.Percent.IsNegative() {
			return fmt.Errorf("festival bonus for %s: %w", m, ErrInvalidRate)
		}
	}

	if t.LatePenalty.Enabled && (t.LatePenalty.MarksPerUnit <= 0 || t.LatePenalty.DaysPerUnit.IsNegative()) {
		return fmt.Errorf("late penalty: %w", ErrInvalidRate)
	}
	return nil
}

func validateSlabs(slabs []TaxSlab) error {
	if len(slabs) == 0 {
		return ErrInvalidTaxSlabs
	}
	prev := decimal.Zero
	for i, s := range slabs {
		if s.Rate.IsNegative() {
			return ErrInvalidTaxSlabs
		}
		last := i == len(slabs)-1
		if s.UpperBound == nil {
			if !last {
				return ErrInvalidTaxSlabs
			}
			continue
		}
		if last || !s.UpperBound.GreaterThan(prev) {
			return ErrInvalidTaxSlabs
		}
		prev = *s.UpperBound
	}
	return nil
}
