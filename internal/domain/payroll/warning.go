package payroll

import "fmt"

type WarningCode string

const (
	WarnZeroSalary             WarningCode = "zero_salary"
	WarnMissingFestivalEntry   WarningCode = "missing_festival_entry"
	WarnMissingHolidayCalendar WarningCode = "missing_holiday_calendar"
	WarnUnclosedSession        WarningCode = "unclosed_session"
	WarnPendingSessions        WarningCode = "pending_sessions"
	WarnNoWorkingDays          WarningCode = "no_working_days"
	WarnDeclaredLeaveOverrun   WarningCode = "declared_leave_overrun"
	WarnStaleOpeningBalance    WarningCode = "stale_opening_balance"
)

// Warning is a non-fatal data-quality finding recorded in the record's audit note.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func NewWarning(code WarningCode, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	return string(w.Code) + ": " + w.Message
}
