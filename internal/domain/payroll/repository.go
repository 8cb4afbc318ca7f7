package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// SalaryRepository persists SalaryRecords keyed by (employee id, month).
type SalaryRepository interface {
	// Upsert inserts record. When a record for the key exists it is left untouched (OutcomeSkipped)
	// unless override is set, in which case it is replaced in place (OutcomeReplaced).
	Upsert(ctx context.Context, record SalaryRecord, override bool) (Outcome, error)

	// Get returns ErrSalaryRecordNotFound when the key has no record.
	Get(ctx context.Context, employeeID string, month period.Period) (SalaryRecord, error)

	ListByMonth(ctx context.Context, month period.Period) ([]SalaryRecord, error)

	// LatestBefore returns the employee's most recent record for a month earlier than month, or
	// ErrSalaryRecordNotFound when there is none.
	LatestBefore(ctx context.Context, employeeID string, month period.Period) (SalaryRecord, error)

	// ListLatestBefore returns, per employee, the most recent record earlier than month.
	ListLatestBefore(ctx context.Context, month period.Period) ([]SalaryRecord, error)
}

// AdjustmentRepository persists the manual monthly inputs.
type AdjustmentRepository interface {
	// Get returns zero Adjustments when none were entered.
	Get(ctx context.Context, employeeID string, month period.Period) (Adjustments, error)
	ListByMonth(ctx context.Context, month period.Period) ([]Adjustments, error)
	Upsert(ctx context.Context, adj Adjustments) (Adjustments, error)
}
