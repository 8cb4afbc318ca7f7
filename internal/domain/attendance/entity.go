package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

type CaptureMethod string

const (
	MethodBiometric CaptureMethod = "biometric"
	MethodManual    CaptureMethod = "manual"
)

// Event is one employee-day of attendance. CheckOut stays nil while the session is open.
type Event struct {
	ID              string
	EmployeeID      string
	Date            time.Time
	CheckIn         time.Time
	CheckOut        *time.Time
	Method          CaptureMethod
	MatchConfidence *float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Resolved reports whether both timestamps are present.
func (e Event) Resolved() bool {
	return e.CheckOut != nil
}

type DayStatus string

const (
	StatusAbsent  DayStatus = "absent"
	StatusHalfDay DayStatus = "half_day"
	StatusFullDay DayStatus = "full_day"
	// StatusPending marks an open session still inside its grace window.
	StatusPending DayStatus = "pending"
)

// Present reports whether the status counts as attendance.
func (s DayStatus) Present() bool {
	return s == StatusHalfDay || s == StatusFullDay
}

// DailyRecord is the classification of one Event.
type DailyRecord struct {
	EmployeeID    string
	Date          time.Time
	Status        DayStatus
	LateMark      bool
	DurationHours decimal.Decimal
	ExtraHours    decimal.Decimal
	// Unclosed is set when an open session was closed by the grace rule.
	Unclosed bool
}

// MonthlySummary folds a month of DailyRecords.
type MonthlySummary struct {
	FullDays            int
	HalfDays            int
	AbsentDays          int
	PendingDays         int
	LateMarks           int
	TuesdaysAttended    int
	WorkingDays         int
	DaysInMonth         int
	ExtraHoursTotal     decimal.Decimal
	EffectiveDaysWorked decimal.Decimal
	UnclosedDates       []time.Time
}

// FaceMatch is the verdict of the external face-match collaborator.
type FaceMatch struct {
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence"`
}
