package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// PayrollJobs contains the month-end payroll and open-session jobs.
type PayrollJobs struct {
	payrollService    payroll.PayrollService
	attendanceService attendance.AttendanceService
	payrollSpec       string
	staleSpec         string
	loc               *time.Location
	now               func() time.Time
}

func NewPayrollJobs(
	payrollService payroll.PayrollService,
	attendanceService attendance.AttendanceService,
	payrollSpec, staleSpec string,
	loc *time.Location,
) *PayrollJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &PayrollJobs{
		payrollService:    payrollService,
		attendanceService: attendanceService,
		payrollSpec:       payrollSpec,
		staleSpec:         staleSpec,
		loc:               loc,
		now:               time.Now,
	}
}

// RegisterJobs registers the jobs whose schedule is non-empty.
func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) error {
	if j.payrollSpec != "" {
		if err := scheduler.AddJob("monthly_payroll", j.payrollSpec, j.RunMonthlyPayroll); err != nil {
			return err
		}
	}
	if j.staleSpec != "" {
		if err := scheduler.AddJob("stale_sessions", j.staleSpec, j.ReportStaleSessions); err != nil {
			return err
		}
	}
	return nil
}

// RunMonthlyPayroll finalizes the previous month for every employee. Existing records are kept.
func (j *PayrollJobs) RunMonthlyPayroll(ctx context.Context) error {
	month := period.Of(j.now().In(j.loc)).Previous()
	slog.Info("Cron: Starting monthly payroll", "month", month.String())

	result, err := j.payrollService.RunBatch(ctx, payroll.RunBatchRequest{Month: month})
	if err != nil {
		return fmt.Errorf("monthly payroll for %s: %w", month, err)
	}

	slog.Info("Cron: Monthly payroll completed",
		"month", month.String(),
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return nil
}

// ReportStaleSessions logs check-ins that were never closed within the grace window.
func (j *PayrollJobs) ReportStaleSessions(ctx context.Context) error {
	sessions, err := j.attendanceService.StaleSessions(ctx, j.now())
	if err != nil {
		return fmt.Errorf("failed to get stale sessions: %w", err)
	}

	if len(sessions) == 0 {
		slog.Info("Cron: No stale sessions found")
		return nil
	}

	for _, s := range sessions {
		slog.Warn("Cron: Session never checked out",
			"employee_id", s.EmployeeID,
			"date", period.DateKey(s.Date),
			"check_in", s.CheckIn)
	}
	return nil
}
