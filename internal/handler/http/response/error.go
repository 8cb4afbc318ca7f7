package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Store availability comes first: it may wrap any other error.
	case errors.Is(err, payroll.ErrStoreUnavailable):
		ServiceUnavailable(w, "Record store unavailable", nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrFaceNotMatched):
		Unprocessable(w, "FACE_NOT_MATCHED", "Face did not match the employee")
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Employee already checked in on this date")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "Employee already checked out on this date")
	case errors.Is(err, attendance.ErrNotCheckedIn):
		Conflict(w, "Employee has not checked in on this date")
	case errors.Is(err, attendance.ErrSessionTooShort):
		BadRequest(w, "Check-out is too soon after check-in", nil)
	case errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		BadRequest(w, "Check-out must be after check-in", nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrSalaryRecordNotFound):
		NotFound(w, "Salary record not found")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid month, expected YYYY-MM", nil)
	case errors.Is(err, payroll.ErrNegativeAdjustment):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrValidation):
		Unprocessable(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, payroll.ErrLockNotAcquired):
		Conflict(w, "Salary record is being finalized, retry later")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
