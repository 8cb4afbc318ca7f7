package payroll

import "errors"

var (
	// ErrValidation wraps per-record validation failures; fatal to the record only.
	ErrValidation = errors.New("payroll validation failed")
	// ErrStoreUnavailable is fatal to the batch.
	ErrStoreUnavailable = errors.New("payroll store unavailable")

	ErrSalaryRecordNotFound = errors.New("salary record not found")
	ErrInvalidPeriod        = errors.New("invalid payroll period")
	ErrNegativeAdjustment   = errors.New("adjustment amounts must be non-negative")
	ErrLockNotAcquired      = errors.New("could not acquire salary record lock")
)
