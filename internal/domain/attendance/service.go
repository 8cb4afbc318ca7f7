package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// AttendanceService handles capture and the classified monthly view.
type AttendanceService interface {
	// Capture applies a check-in or check-out from the capture collaborator.
	Capture(ctx context.Context, req CaptureRequest) (CaptureResponse, error)

	// RecordManual stores a manual entry, optionally with both timestamps.
	RecordManual(ctx context.Context, req ManualEntryRequest) (CaptureResponse, error)

	// MonthlyAttendance classifies and aggregates one employee-month.
	MonthlyAttendance(ctx context.Context, employeeID string, month period.Period) (MonthlyAttendanceResponse, error)

	// StaleSessions lists open sessions whose grace window has passed at now.
	StaleSessions(ctx context.Context, now time.Time) ([]Event, error)
}
