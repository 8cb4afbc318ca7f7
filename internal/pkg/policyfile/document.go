package policyfile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// amount reads YAML scalars such as 0.65 or "21000.00" as exact decimals.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(node *yaml.Node) error {
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q", node.Line, node.Value)
	}
	a.Decimal = d
	return nil
}

func (a amount) MarshalYAML() (any, error) {
	return a.String(), nil
}

type clock struct {
	policy.ClockTime
}

func (c *clock) UnmarshalYAML(node *yaml.Node) error {
	t, err := policy.ParseClockTime(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	c.ClockTime = t
	return nil
}

func (c clock) MarshalYAML() (any, error) {
	return c.String(), nil
}

type document struct {
	Version     string                 `yaml:"version"`
	Timezone    string                 `yaml:"timezone"`
	Attendance  attendanceDoc          `yaml:"attendance"`
	Leave       leaveDoc               `yaml:"leave"`
	LatePenalty latePenaltyDoc         `yaml:"late_penalty"`
	SalarySplit splitDoc               `yaml:"salary_split"`
	Statutory   statutoryDoc           `yaml:"statutory"`
	Bonus       bonusDoc               `yaml:"bonus"`
	TaxSlabs    []slabDoc              `yaml:"tax_slabs"`
	Festivals   map[string]festivalDoc `yaml:"festivals"`
	Holidays    map[string]string      `yaml:"holidays"`
}

type attendanceDoc struct {
	LateCutoff       clock         `yaml:"late_cutoff"`
	ExtraHoursCutoff clock         `yaml:"extra_hours_cutoff"`
	HalfDayHours     amount        `yaml:"half_day_hours"`
	FullDayHours     amount        `yaml:"full_day_hours"`
	OpenSessionGrace time.Duration `yaml:"open_session_grace"`
	MinSession       time.Duration `yaml:"min_session"`
}

type leaveDoc struct {
	AnnualLimit         amount `yaml:"annual_limit"`
	CarryForwardLimit   amount `yaml:"carry_forward_limit"`
	ConcessionDays      amount `yaml:"concession_days"`
	ConcessionThreshold amount `yaml:"concession_threshold"`
	EncashmentEnabled   bool   `yaml:"encashment_enabled"`
}

type latePenaltyDoc struct {
	Enabled      bool   `yaml:"enabled"`
	MarksPerUnit int    `yaml:"marks_per_unit"`
	DaysPerUnit  amount `yaml:"days_per_unit"`
}

type splitDoc struct {
	Basic     amount `yaml:"basic"`
	DA        amount `yaml:"da"`
	HRA       amount `yaml:"hra"`
	Allowance amount `yaml:"allowance"`
}

type statutoryDoc struct {
	PFCeiling         amount `yaml:"pf_ceiling"`
	PFRate            amount `yaml:"pf_rate"`
	PFAdminRate       amount `yaml:"pf_admin_rate"`
	ESICeiling        amount `yaml:"esi_ceiling"`
	ESIEmployeeRate   amount `yaml:"esi_employee_rate"`
	ESIEmployerRate   amount `yaml:"esi_employer_rate"`
	MLWFThreshold     amount `yaml:"mlwf_threshold"`
	MLWFEmployee      amount `yaml:"mlwf_employee"`
	MLWFEmployer      amount `yaml:"mlwf_employer"`
	StandardDeduction amount `yaml:"standard_deduction"`
}

type bonusDoc struct {
	FestivalEligibilityDays int `yaml:"festival_eligibility_days"`
}

// slabDoc is one tax bracket; the last one omits up_to.
type slabDoc struct {
	UpTo *amount `yaml:"up_to,omitempty"`
	Rate amount  `yaml:"rate"`
}

type festivalDoc struct {
	Percent amount `yaml:"percent"`
	Name    string `yaml:"name"`
}

func fromTables(t policy.Tables) document {
	doc := document{
		Version:  t.Version,
		Timezone: t.Loc().String(),
		Attendance: attendanceDoc{
			LateCutoff:       clock{t.Attendance.LateCutoff},
			ExtraHoursCutoff: clock{t.Attendance.ExtraHoursCutoff},
			HalfDayHours:     amount{t.Attendance.HalfDayHours},
			FullDayHours:     amount{t.Attendance.FullDayHours},
			OpenSessionGrace: t.Attendance.OpenSessionGrace,
			MinSession:       t.Attendance.MinSession,
		},
		Leave: leaveDoc{
			AnnualLimit:         amount{t.Leave.AnnualLimit},
			CarryForwardLimit:   amount{t.Leave.CarryForwardLimit},
			ConcessionDays:      amount{t.Leave.ConcessionDays},
			ConcessionThreshold: amount{t.Leave.ConcessionThreshold},
			EncashmentEnabled:   t.Leave.EncashmentEnabled,
		},
		LatePenalty: latePenaltyDoc{
			Enabled:      t.LatePenalty.Enabled,
			MarksPerUnit: t.LatePenalty.MarksPerUnit,
			DaysPerUnit:  amount{t.LatePenalty.DaysPerUnit},
		},
		SalarySplit: splitDoc{
			Basic:     amount{t.Split.BasicPercent},
			DA:        amount{t.Split.DAPercent},
			HRA:       amount{t.Split.HRAPercent},
			Allowance: amount{t.Split.AllowancePercent},
		},
		Statutory: statutoryDoc{
			PFCeiling:         amount{t.Statutory.PFCeiling},
			PFRate:            amount{t.Statutory.PFRate},
			PFAdminRate:       amount{t.Statutory.PFAdminRate},
			ESICeiling:        amount{t.Statutory.ESICeiling},
			ESIEmployeeRate:   amount{t.Statutory.ESIEmployeeRate},
			ESIEmployerRate:   amount{t.Statutory.ESIEmployerRate},
			MLWFThreshold:     amount{t.Statutory.MLWFThreshold},
			MLWFEmployee:      amount{t.Statutory.MLWFEmployee},
			MLWFEmployer:      amount{t.Statutory.MLWFEmployer},
			StandardDeduction: amount{t.Statutory.StandardDeduction},
		},
		Bonus: bonusDoc{FestivalEligibilityDays: t.Bonus.FestivalEligibilityDays},
	}
	for _, s := range t.TaxSlabs {
		slab := slabDoc{Rate: amount{s.Rate}}
		if s.UpperBound != nil {
			slab.UpTo = &amount{*s.UpperBound}
		}
		doc.TaxSlabs = append(doc.TaxSlabs, slab)
	}
	return doc
}

func (d document) toTables() (policy.Tables, error) {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return policy.Tables{}, fmt.Errorf("invalid timezone %q: %w", d.Timezone, err)
	}

	t := policy.Tables{
		Version:  d.Version,
		Location: loc,
		Attendance: policy.AttendanceRules{
			LateCutoff:       d.Attendance.LateCutoff.ClockTime,
			ExtraHoursCutoff: d.Attendance.ExtraHoursCutoff.ClockTime,
			HalfDayHours:     d.Attendance.HalfDayHours.Decimal,
			FullDayHours:     d.Attendance.FullDayHours.Decimal,
			OpenSessionGrace: d.Attendance.OpenSessionGrace,
			MinSession:       d.Attendance.MinSession,
		},
		Leave: policy.LeaveRules{
			AnnualLimit:         d.Leave.AnnualLimit.Decimal,
			CarryForwardLimit:   d.Leave.CarryForwardLimit.Decimal,
			ConcessionDays:      d.Leave.ConcessionDays.Decimal,
			ConcessionThreshold: d.Leave.ConcessionThreshold.Decimal,
			EncashmentEnabled:   d.Leave.EncashmentEnabled,
		},
		LatePenalty: policy.LatePenalty{
			Enabled:      d.LatePenalty.Enabled,
			MarksPerUnit: d.LatePenalty.MarksPerUnit,
			DaysPerUnit:  d.LatePenalty.DaysPerUnit.Decimal,
		},
		Split: policy.SalarySplit{
			BasicPercent:     d.SalarySplit.Basic.Decimal,
			DAPercent:        d.SalarySplit.DA.Decimal,
			HRAPercent:       d.SalarySplit.HRA.Decimal,
			AllowancePercent: d.SalarySplit.Allowance.Decimal,
		},
		Statutory: policy.StatutoryRules{
			PFCeiling:         d.Statutory.PFCeiling.Decimal,
			PFRate:            d.Statutory.PFRate.Decimal,
			PFAdminRate:       d.Statutory.PFAdminRate.Decimal,
			ESICeiling:        d.Statutory.ESICeiling.Decimal,
			ESIEmployeeRate:   d.Statutory.ESIEmployeeRate.Decimal,
			ESIEmployerRate:   d.Statutory.ESIEmployerRate.Decimal,
			MLWFThreshold:     d.Statutory.MLWFThreshold.Decimal,
			MLWFEmployee:      d.Statutory.MLWFEmployee.Decimal,
			MLWFEmployer:      d.Statutory.MLWFEmployer.Decimal,
			StandardDeduction: d.Statutory.StandardDeduction.Decimal,
		},
		Bonus:     policy.BonusRules{FestivalEligibilityDays: d.Bonus.FestivalEligibilityDays},
		Festivals: make(map[time.Month]policy.FestivalBonus, len(d.Festivals)),
	}

	for _, s := range d.TaxSlabs {
		slab := policy.TaxSlab{Rate: s.Rate.Decimal}
		if s.UpTo != nil {
			bound := s.UpTo.Decimal
			slab.UpperBound = &bound
		}
		t.TaxSlabs = append(t.TaxSlabs, slab)
	}

	for key, f := range d.Festivals {
		m, err := parseMonth(key)
		if err != nil {
			return policy.Tables{}, err
		}
		t.Festivals[m] = policy.FestivalBonus{Percent: f.Percent.Decimal, Name: f.Name}
	}

	if d.Holidays != nil {
		t.Holidays = make(map[string]string, len(d.Holidays))
		for date, name := range d.Holidays {
			day, err := time.Parse("2006-01-02", date)
			if err != nil {
				return policy.Tables{}, fmt.Errorf("invalid holiday date %q: expected YYYY-MM-DD", date)
			}
			t.Holidays[day.Format("2006-01-02")] = name
		}
	}

	return t, nil
}

// parseMonth accepts 1-12 or an English month name.
func parseMonth(key string) (time.Month, error) {
	if n, err := strconv.Atoi(key); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("invalid festival month %q", key)
		}
		return time.Month(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), key) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid festival month %q", key)
}
