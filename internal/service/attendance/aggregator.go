package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

var half = decimal.RequireFromString("0.5")

// Aggregator folds a month of daily records into a MonthlySummary.
type Aggregator struct {
	tables policy.Tables
}

func NewAggregator(tables policy.Tables) *Aggregator {
	return &Aggregator{tables: tables}
}

// IsWorkingDay reports whether day is neither a Tuesday nor a holiday.
func (a *Aggregator) IsWorkingDay(day time.Time) bool {
	if day.Weekday() == time.Tuesday {
		return false
	}
	_, holiday := a.tables.Holiday(day)
	return !holiday
}

// WorkingDays counts the working days of month.
func (a *Aggregator) WorkingDays(month period.Period) int {
	n := 0
	for _, day := range month.Days(a.tables.Loc()) {
		if a.IsWorkingDay(day) {
			n++
		}
	}
	return n
}

// Aggregate summarizes records falling inside month. Records outside the month are ignored and
// only the first record of a date counts.
func (a *Aggregator) Aggregate(month period.Period, records []attendance.DailyRecord) attendance.MonthlySummary {
	summary := attendance.MonthlySummary{
		DaysInMonth:     month.DaysIn(),
		WorkingDays:     a.WorkingDays(month),
		ExtraHoursTotal: decimal.Zero,
	}

	seen := make(map[string]bool, len(records))
	presentWorkingDays, pendingWorkingDays := 0, 0
	for _, r := range records {
		if period.Of(r.Date) != month {
			continue
		}
		key := period.DateKey(r.Date)
		if seen[key] {
			continue
		}
		seen[key] = true

		if r.Unclosed {
			summary.UnclosedDates = append(summary.UnclosedDates, r.Date)
		}

		switch r.Status {
		case attendance.StatusFullDay:
			summary.FullDays++
		case attendance.StatusHalfDay:
			summary.HalfDays++
		case attendance.StatusPending:
			summary.PendingDays++
			if a.IsWorkingDay(r.Date) {
				pendingWorkingDays++
			}
			continue
		}

		if r.LateMark {
			summary.LateMarks++
		}
		summary.ExtraHoursTotal = summary.ExtraHoursTotal.Add(r.ExtraHours)

		if r.Status.Present() {
			if r.Date.Weekday() == time.Tuesday {
				summary.TuesdaysAttended++
			}
			if a.IsWorkingDay(r.Date) {
				presentWorkingDays++
			}
		}
	}

	// Working days without attendance, pending days excluded.
	summary.AbsentDays = summary.WorkingDays - presentWorkingDays - pendingWorkingDays
	if summary.AbsentDays < 0 {
		summary.AbsentDays = 0
	}

	summary.EffectiveDaysWorked = decimal.NewFromInt(int64(summary.FullDays)).
		Add(decimal.NewFromInt(int64(summary.HalfDays)).Mul(half))

	sort.Slice(summary.UnclosedDates, func(i, j int) bool {
		return summary.UnclosedDates[i].Before(summary.UnclosedDates[j])
	})
	return summary
}
