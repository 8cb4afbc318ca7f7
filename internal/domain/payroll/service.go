package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// PayrollService runs and queries monthly payroll.
type PayrollService interface {
	// RunBatch finalizes a month for every selected employee.
	RunBatch(ctx context.Context, req RunBatchRequest) (BatchResult, error)

	// Finalize computes and upserts a single (employee, month).
	Finalize(ctx context.Context, req FinalizeRequest) (FinalizeResponse, error)

	GetRecord(ctx context.Context, employeeID string, month period.Period) (SalaryRecord, error)
	ListRecords(ctx context.Context, month period.Period) ([]SalaryRecord, error)

	UpsertAdjustments(ctx context.Context, req AdjustmentsRequest) (Adjustments, error)
}
