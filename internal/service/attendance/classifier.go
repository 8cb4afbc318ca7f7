package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Classifier turns attendance events into daily records. It holds no state beyond the policy.
type Classifier struct {
	rules policy.AttendanceRules
	loc   *time.Location
}

func NewClassifier(tables policy.Tables) *Classifier {
	return &Classifier{rules: tables.Attendance, loc: tables.Loc()}
}

// Classify classifies a resolved event. Open sessions return ErrSessionOpen.
func (c *Classifier) Classify(event attendance.Event) (attendance.DailyRecord, error) {
	if !event.Resolved() {
		return attendance.DailyRecord{}, attendance.ErrSessionOpen
	}

	in := event.CheckIn.In(c.loc)
	out := event.CheckOut.In(c.loc)
	if !out.After(in) {
		return attendance.DailyRecord{}, attendance.ErrCheckOutBeforeCheckIn
	}

	day := period.DateOnly(in)
	duration := hours(out.Sub(in))

	return attendance.DailyRecord{
		EmployeeID:    event.EmployeeID,
		Date:          day,
		Status:        c.status(duration),
		LateMark:      c.late(in),
		DurationHours: duration.Round(2),
		ExtraHours:    c.extraHours(day, out),
	}, nil
}

// ClassifyAt classifies event as seen at now. An open session is Pending until the end of its
// date plus the grace window, then Absent with its late flag kept.
func (c *Classifier) ClassifyAt(event attendance.Event, now time.Time) (attendance.DailyRecord, error) {
	if event.Resolved() {
		return c.Classify(event)
	}

	in := event.CheckIn.In(c.loc)
	day := period.DateOnly(in)
	record := attendance.DailyRecord{
		EmployeeID:    event.EmployeeID,
		Date:          day,
		Status:        attendance.StatusPending,
		LateMark:      c.late(in),
		DurationHours: decimal.Zero,
		ExtraHours:    decimal.Zero,
	}

	if !now.Before(c.GraceDeadline(day)) {
		record.Status = attendance.StatusAbsent
		record.Unclosed = true
	}
	return record, nil
}

// GraceDeadline is the instant an open session on day stops being pending.
func (c *Classifier) GraceDeadline(day time.Time) time.Time {
	return period.DateOnly(day.In(c.loc)).AddDate(0, 0, 1).Add(c.rules.OpenSessionGrace)
}

func (c *Classifier) status(duration decimal.Decimal) attendance.DayStatus {
	switch {
	case duration.LessThan(c.rules.HalfDayHours):
		return attendance.StatusAbsent
	case duration.LessThan(c.rules.FullDayHours):
		return attendance.StatusHalfDay
	default:
		return attendance.StatusFullDay
	}
}

func (c *Classifier) late(in time.Time) bool {
	return in.After(c.rules.LateCutoff.On(in))
}

// extraHours counts time after the extra-hours cutoff and before the following midnight.
func (c *Classifier) extraHours(day, out time.Time) decimal.Decimal {
	cutoff := c.rules.ExtraHoursCutoff.On(day)
	end := out
	if midnight := day.AddDate(0, 0, 1); end.After(midnight) {
		end = midnight
	}
	if !end.After(cutoff) {
		return decimal.Zero
	}
	return hours(end.Sub(cutoff)).Round(2)
}

func hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour)
}
