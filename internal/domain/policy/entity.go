package policy

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

// ClockTime is a wall-clock time of day, e.g. the 09:15 late cutoff.
type ClockTime struct {
	Hour   int
	Minute int
}

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute}
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: expected HH:MM", s)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// On returns the instant of c on the calendar date of day, in day's location.
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

// Minutes returns the minutes elapsed since midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// AttendanceRules drive the Attendance Classifier.
type AttendanceRules struct {
	LateCutoff       ClockTime       `json:"late_cutoff"`
	ExtraHoursCutoff ClockTime       `json:"extra_hours_cutoff"`
	HalfDayHours     decimal.Decimal `json:"half_day_hours"`     // below this: Absent
	FullDayHours     decimal.Decimal `json:"full_day_hours"`     // at or above this: FullDay
	OpenSessionGrace time.Duration   `json:"open_session_grace"` // after the following midnight
	MinSession       time.Duration   `json:"min_session"`
}

// LeaveRules drive the Leave & LOP Ledger.
type LeaveRules struct {
	AnnualLimit         decimal.Decimal `json:"annual_limit"`
	CarryForwardLimit   decimal.Decimal `json:"carry_forward_limit"`
	ConcessionDays      decimal.Decimal `json:"concession_days"`
	ConcessionThreshold decimal.Decimal `json:"concession_threshold"` // concession applies when effective days worked is below this
	EncashmentEnabled   bool            `json:"encashment_enabled"`
}

// MonthlyAccrual is AnnualLimit/12 at full precision. Round only for display.
func (l LeaveRules) MonthlyAccrual() decimal.Decimal {
	return l.AnnualLimit.Div(decimal.NewFromInt(12))
}

// LatePenalty converts accumulated late marks into deducted days.
type LatePenalty struct {
	Enabled      bool            `json:"enabled"`
	MarksPerUnit int             `json:"marks_per_unit"`
	DaysPerUnit  decimal.Decimal `json:"days_per_unit"`
}

// SalarySplit holds earning component shares as percentages of the monthly salary.
type SalarySplit struct {
	BasicPercent     decimal.Decimal `json:"basic"`
	DAPercent        decimal.Decimal `json:"da"`
	HRAPercent       decimal.Decimal `json:"hra"`
	AllowancePercent decimal.Decimal `json:"allowance"`
}

// StatutoryRules hold PF, ESI, MLWF and income tax parameters. Rates are percentages.
type StatutoryRules struct {
	PFCeiling         decimal.Decimal `json:"pf_ceiling"`
	PFRate            decimal.Decimal `json:"pf_rate"`
	PFAdminRate       decimal.Decimal `json:"pf_admin_rate"`
	ESICeiling        decimal.Decimal `json:"esi_ceiling"`
	ESIEmployeeRate   decimal.Decimal `json:"esi_employee_rate"`
	ESIEmployerRate   decimal.Decimal `json:"esi_employer_rate"`
	MLWFThreshold     decimal.Decimal `json:"mlwf_threshold"`
	MLWFEmployee      decimal.Decimal `json:"mlwf_employee"`
	MLWFEmployer      decimal.Decimal `json:"mlwf_employer"`
	StandardDeduction decimal.Decimal `json:"standard_deduction"`
}

type BonusRules struct {
	FestivalEligibilityDays int `json:"festival_eligibility_days"`
}

// FestivalBonus is one entry of the festival bonus schedule.
type FestivalBonus struct {
	Percent decimal.Decimal `json:"percent"`
	Name    string          `json:"name"`
}

// TaxSlab is one progressive bracket. A nil UpperBound means unbounded.
type TaxSlab struct {
	UpperBound *decimal.Decimal `json:"up_to,omitempty"`
	Rate       decimal.Decimal  `json:"rate"`
}

// Tables is the versioned policy snapshot used for one payroll run.
type Tables struct {
	Version     string                       `json:"version"`
	Location    *time.Location               `json:"-"`
	Attendance  AttendanceRules              `json:"attendance"`
	Leave       LeaveRules                   `json:"leave"`
	LatePenalty LatePenalty                  `json:"late_penalty"`
	Split       SalarySplit                  `json:"salary_split"`
	Statutory   StatutoryRules               `json:"statutory"`
	Bonus       BonusRules                   `json:"bonus"`
	TaxSlabs    []TaxSlab                    `json:"tax_slabs"`
	Festivals   map[time.Month]FestivalBonus `json:"festivals"`
	// Holidays is keyed by period.DateKey. Nil means no calendar was provided.
	Holidays map[string]string `json:"holidays"`
}

// Holiday reports whether day is on the holiday calendar.
func (t Tables) Holiday(day time.Time) (string, bool) {
	name, ok := t.Holidays[period.DateKey(day)]
	return name, ok
}

// Festival looks up the festival bonus entry for a month.
func (t Tables) Festival(m time.Month) (FestivalBonus, bool) {
	f, ok := t.Festivals[m]
	return f, ok
}

// Loc returns the policy time zone, UTC when unset.
func (t Tables) Loc() *time.Location {
	if t.Location == nil {
		return time.UTC
	}
	return t.Location
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bound(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

// DefaultTables returns the reference policy: 09:15 / 18:45 cutoffs, 14 days annual leave capped at 30,
// 60/21/10/9 salary split and the seven-bracket tax table.
func DefaultTables() Tables {
	return Tables{
		Version:  "reference",
		Location: time.UTC,
		Attendance: AttendanceRules{
			LateCutoff:       NewClockTime(9, 15),
			ExtraHoursCutoff: NewClockTime(18, 45),
			HalfDayHours:     d("4"),
			FullDayHours:     d("6"),
			OpenSessionGrace: 6 * time.Hour,
			MinSession:       time.Minute,
		},
		Leave: LeaveRules{
			AnnualLimit:         d("14"),
			CarryForwardLimit:   d("30"),
			ConcessionDays:      d("1.2"),
			ConcessionThreshold: d("3"),
		},
		LatePenalty: LatePenalty{
			Enabled:      false,
			MarksPerUnit: 3,
			DaysPerUnit:  d("0.5"),
		},
		Split: SalarySplit{
			BasicPercent:     d("60"),
			DAPercent:        d("21"),
			HRAPercent:       d("10"),
			AllowancePercent: d("9"),
		},
		Statutory: StatutoryRules{
			PFCeiling:         d("15000"),
			PFRate:            d("12"),
			PFAdminRate:       d("0.65"),
			ESICeiling:        d("21000"),
			ESIEmployeeRate:   d("0.75"),
			ESIEmployerRate:   d("3.25"),
			MLWFThreshold:     d("3000"),
			MLWFEmployee:      d("1"),
			MLWFEmployer:      d("1"),
			StandardDeduction: d("50000"),
		},
		Bonus: BonusRules{FestivalEligibilityDays: 90},
		TaxSlabs: []TaxSlab{
			{UpperBound: bound("250000"), Rate: d("0")},
			{UpperBound: bound("500000"), Rate: d("5")},
			{UpperBound: bound("750000"), Rate: d("10")},
			{UpperBound: bound("1000000"), Rate: d("15")},
			{UpperBound: bound("1250000"), Rate: d("20")},
			{UpperBound: bound("1500000"), Rate: d("25")},
			{UpperBound: nil, Rate: d("30")},
		},
		Festivals: map[time.Month]FestivalBonus{},
		Holidays:  map[string]string{},
	}
}
