package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type CaptureRequest struct {
	EmployeeID string        `json:"employee_id" validate:"required"`
	Timestamp  time.Time     `json:"timestamp"`
	Method     CaptureMethod `json:"method" validate:"omitempty,oneof=biometric manual"`
	FaceMatch  *FaceMatch    `json:"face_match,omitempty"`
}

func (r *CaptureRequest) Validate() error {
	if r.Method == "" {
		r.Method = MethodBiometric
	}

	errs, err := validator.Merge(nil, validator.Struct(r))
	if err != nil {
		return err
	}

	if r.Timestamp.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	}

	if r.Method == MethodBiometric && r.FaceMatch == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "face_match",
			Message: "face_match is required for biometric capture",
		})
	}

	if r.FaceMatch != nil && (r.FaceMatch.Confidence < 0 || r.FaceMatch.Confidence > 1) {
		errs = append(errs, validator.ValidationError{
			Field:   "face_match.confidence",
			Message: "confidence must be between 0 and 1",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ManualEntryRequest struct {
	EmployeeID string     `json:"employee_id" validate:"required"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
}

func (r *ManualEntryRequest) Validate() error {
	errs, err := validator.Merge(nil, validator.Struct(r))
	if err != nil {
		return err
	}

	if r.CheckIn.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in",
			Message: "check_in is required",
		})
	} else if r.CheckOut != nil && !r.CheckOut.After(r.CheckIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out",
			Message: ErrCheckOutBeforeCheckIn.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// RESPONSES
// ========================================

type EventResponse struct {
	ID              string        `json:"id"`
	EmployeeID      string        `json:"employee_id"`
	Date            string        `json:"date"`
	CheckIn         time.Time     `json:"check_in"`
	CheckOut        *time.Time    `json:"check_out"`
	Method          CaptureMethod `json:"method"`
	MatchConfidence *float64      `json:"match_confidence"`
}

type DailyRecordResponse struct {
	Date          string          `json:"date"`
	Status        DayStatus       `json:"status"`
	LateMark      bool            `json:"late_mark"`
	DurationHours decimal.Decimal `json:"duration_hours"`
	ExtraHours    decimal.Decimal `json:"extra_hours"`
	Unclosed      bool            `json:"unclosed,omitempty"`
}

const (
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
)

type CaptureResponse struct {
	Action string               `json:"action"`
	Event  EventResponse        `json:"event"`
	Record *DailyRecordResponse `json:"record,omitempty"`
}

type MonthlySummaryResponse struct {
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

type MonthlyAttendanceResponse struct {
	EmployeeID string                 `json:"employee_id"`
	Month      period.Period          `json:"month"`
	Days       []DailyRecordResponse  `json:"days"`
	Summary    MonthlySummaryResponse `json:"summary"`
}

func ToEventResponse(e Event) EventResponse {
	return EventResponse{
		ID:              e.ID,
		EmployeeID:      e.EmployeeID,
		Date:            period.DateKey(e.Date),
		CheckIn:         e.CheckIn,
		CheckOut:        e.CheckOut,
		Method:          e.Method,
		MatchConfidence: e.MatchConfidence,
	}
}

func ToDailyRecordResponse(r DailyRecord) DailyRecordResponse {
	return DailyRecordResponse{
		Date:          period.DateKey(r.Date),
		Status:        r.Status,
		LateMark:      r.LateMark,
		DurationHours: r.DurationHours,
		ExtraHours:    r.ExtraHours,
		Unclosed:      r.Unclosed,
	}
}

func ToSummaryResponse(s MonthlySummary) MonthlySummaryResponse {
	return MonthlySummaryResponse{
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
