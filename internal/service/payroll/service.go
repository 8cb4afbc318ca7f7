package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/sse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type PayrollServiceImpl struct {
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	salaryRepo     payroll.SalaryRepository
	adjustmentRepo payroll.AdjustmentRepository
	policyStore    policy.Store
	locker         lock.Locker
	workers        int
	progress       ProgressPublisher
	now            func() time.Time
}

// ProgressPublisher receives batch progress keyed by month.
type ProgressPublisher interface {
	Publish(topic string, event sse.Event)
}

const (
	EventEmployeeResult = "employee_result"
	EventBatchFinished  = "batch_finished"
)

type Option func(*PayrollServiceImpl)

// WithProgress publishes one event per employee and one when the batch ends.
func WithProgress(p ProgressPublisher) Option {
	return func(s *PayrollServiceImpl) {
		s.progress = p
	}
}

func NewPayrollService(
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	salaryRepo payroll.SalaryRepository,
	adjustmentRepo payroll.AdjustmentRepository,
	policyStore policy.Store,
	locker lock.Locker,
	workers int,
	opts ...Option,
) payroll.PayrollService {
	if workers < 1 {
		workers = 1
	}
	s := &PayrollServiceImpl{
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		salaryRepo:     salaryRepo,
		adjustmentRepo: adjustmentRepo,
		policyStore:    policyStore,
		locker:         locker,
		workers:        workers,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PayrollServiceImpl) publish(month period.Period, event string, data any) {
	if s.progress == nil {
		return
	}
	s.progress.Publish(month.String(), sse.Event{Event: event, Data: data})
}

// batchInputs holds everything bulk-read before per-employee computation starts.
type batchInputs struct {
	now         time.Time
	events      map[string][]attendance.Event
	adjustments map[string]payroll.Adjustments
	previous    map[string]payroll.SalaryRecord
}

func (b batchInputs) adjustmentsFor(employeeID string, month period.Period) payroll.Adjustments {
	if adj, ok := b.adjustments[employeeID]; ok {
		return adj
	}
	return payroll.Adjustments{EmployeeID: employeeID, Month: month}
}

// openingBalance carries the closing balance of the latest earlier record. The returned month is
// that record's month, or the zero Period when the employee has no history.
func (b batchInputs) openingBalance(employeeID string) (decimal.Decimal, period.Period) {
	if rec, ok := b.previous[employeeID]; ok {
		return rec.Leave.ClosingBalance, rec.Month
	}
	return decimal.Zero, period.Period{}
}

// ========== BATCH ==========

// RunBatch implements payroll.PayrollService. Per-employee failures are recorded in the result;
// only ErrStoreUnavailable stops the batch, in which case the partial result is returned with it.
func (s *PayrollServiceImpl) RunBatch(ctx context.Context, req payroll.RunBatchRequest) (payroll.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BatchResult{}, err
	}

	result := payroll.BatchResult{Month: req.Month, Override: req.Override}

	tables, err := s.policyStore.Tables(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load policy tables: %w", err)
	}

	employees, missing, err := s.selectEmployees(ctx, req.EmployeeIDs)
	if err != nil {
		return result, err
	}

	in, err := s.loadMonth(ctx, tables, req.Month)
	if err != nil {
		return result, err
	}

	slog.Info("Payroll batch started",
		"month", req.Month.String(),
		"employees", len(employees),
		"override", req.Override,
		"policy_version", tables.Version,
		"workers", s.workers,
	)
	started := time.Now()

	pipeline := NewPipeline(tables)
	results := make([]payroll.EmployeeResult, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = payroll.EmployeeResult{EmployeeID: emp.ID, Status: payroll.StatusAborted, Reason: "batch aborted"}
				return nil
			}
			res, _, err := s.finalizeOne(gctx, pipeline, newContext(emp, req.Month, in), req.Override)
			results[i] = res
			s.publish(req.Month, EventEmployeeResult, res)
			if errors.Is(err, payroll.ErrStoreUnavailable) {
				return err
			}
			return nil
		})
	}
	batchErr := g.Wait()

	for _, id := range missing {
		results = append(results, payroll.EmployeeResult{
			EmployeeID: id,
			Status:     payroll.StatusSkipped,
			Reason:     payroll.SkipEmployeeNotFound,
		})
	}
	result.Results = results
	result.Tally()

	if batchErr != nil {
		result.Aborted = true
		s.publish(req.Month, EventBatchFinished, result)
		slog.Error("Payroll batch aborted",
			"month", req.Month.String(),
			"inserted", result.Inserted,
			"replaced", result.Replaced,
			"halted", result.Halted,
			"error", batchErr,
		)
		return result, fmt.Errorf("payroll batch aborted: %w", batchErr)
	}

	s.publish(req.Month, EventBatchFinished, result)
	slog.Info("Payroll batch finished",
		"month", req.Month.String(),
		"inserted", result.Inserted,
		"replaced", result.Replaced,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", time.Since(started).String(),
	)
	return result, nil
}

func (s *PayrollServiceImpl) selectEmployees(ctx context.Context, ids []string) ([]employee.Employee, []string, error) {
	all, err := s.employeeRepo.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get employees: %w", err)
	}
	if len(ids) == 0 {
		return all, nil, nil
	}

	byID := make(map[string]employee.Employee, len(all))
	for _, emp := range all {
		byID[emp.ID] = emp
	}

	var selected []employee.Employee
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if emp, ok := byID[id]; ok {
			selected = append(selected, emp)
		} else {
			missing = append(missing, id)
		}
	}
	return selected, missing, nil
}

func (s *PayrollServiceImpl) loadMonth(ctx context.Context, tables policy.Tables, month period.Period) (batchInputs, error) {
	loc := tables.Loc()
	in := batchInputs{
		now:         s.now(),
		events:      make(map[string][]attendance.Event),
		adjustments: make(map[string]payroll.Adjustments),
		previous:    make(map[string]payroll.SalaryRecord),
	}

	events, err := s.attendanceRepo.EventsInRange(ctx, month.Start(loc), month.End(loc))
	if err != nil {
		return in, fmt.Errorf("failed to load attendance events: %w", err)
	}
	for _, e := range events {
		in.events[e.EmployeeID] = append(in.events[e.EmployeeID], e)
	}

	previous, err := s.salaryRepo.ListLatestBefore(ctx, month)
	if err != nil {
		return in, fmt.Errorf("failed to load previous salary records: %w", err)
	}
	for _, r := range previous {
		in.previous[r.EmployeeID] = r
	}

	adjustments, err := s.adjustmentRepo.ListByMonth(ctx, month)
	if err != nil {
		return in, fmt.Errorf("failed to load adjustments: %w", err)
	}
	for _, a := range adjustments {
		in.adjustments[a.EmployeeID] = a
	}

	return in, nil
}

// finalizeOne computes and stores one record. Failures are also reported in the EmployeeResult.
func (s *PayrollServiceImpl) finalizeOne(ctx context.Context, pipeline *Pipeline, c *payroll.ComputationContext, override bool) (payroll.EmployeeResult, *payroll.SalaryRecord, error) {
	res := payroll.EmployeeResult{EmployeeID: c.Employee.ID}
	log := slog.With("employee_id", c.Employee.ID, "month", c.Month.String())

	fail := func(err error) (payroll.EmployeeResult, *payroll.SalaryRecord, error) {
		res.Status = payroll.StatusError
		res.Reason = err.Error()
		if errors.Is(err, context.Canceled) {
			res.Status = payroll.StatusAborted
		}
		log.Error("Payroll computation failed", "error", err)
		return res, nil, err
	}

	record, err := pipeline.Run(c)
	if err != nil {
		return fail(err)
	}
	res.Warnings = record.AuditNote
	for _, w := range record.AuditNote {
		log.Warn("Payroll data quality warning", "code", w.Code, "message", w.Message)
	}

	if !record.Billable() {
		res.Status = payroll.StatusSkipped
		res.Reason = payroll.SkipNoBillableData
		return res, &record, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fail(fmt.Errorf("failed to generate record id: %w", err))
	}
	record.ID = id.String()

	release, err := s.locker.Lock(ctx, c.Employee.ID+"|"+c.Month.String())
	if err != nil {
		return fail(fmt.Errorf("%w: %w", payroll.ErrLockNotAcquired, err))
	}
	defer release()

	outcome, err := s.salaryRepo.Upsert(ctx, record, override)
	if err != nil {
		return fail(fmt.Errorf("failed to upsert salary record: %w", err))
	}

	net := record.NetSalary
	switch outcome {
	case payroll.OutcomeInserted:
		res.Status = payroll.StatusInserted
		res.NetSalary = &net
	case payroll.OutcomeReplaced:
		res.Status = payroll.StatusReplaced
		res.NetSalary = &net
	case payroll.OutcomeSkipped:
		res.Status = payroll.StatusSkipped
		res.Reason = payroll.SkipRecordExists
	}
	log.Debug("Salary record finalized", "outcome", outcome, "net_salary", net.String())
	return res, &record, nil
}

// ========== SINGLE RECORD ==========

// Finalize implements payroll.PayrollService.
func (s *PayrollServiceImpl) Finalize(ctx context.Context, req payroll.FinalizeRequest) (payroll.FinalizeResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.FinalizeResponse{}, err
	}

	tables, err := s.policyStore.Tables(ctx)
	if err != nil {
		return payroll.FinalizeResponse{}, fmt.Errorf("failed to load policy tables: %w", err)
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return payroll.FinalizeResponse{Outcome: payroll.OutcomeSkipped, Reason: payroll.SkipEmployeeNotFound}, nil
		}
		return payroll.FinalizeResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	loc := tables.Loc()
	events, err := s.attendanceRepo.EventsFor(ctx, emp.ID, req.Month.Start(loc), req.Month.End(loc))
	if err != nil {
		return payroll.FinalizeResponse{}, fmt.Errorf("failed to load attendance events: %w", err)
	}

	in := batchInputs{
		now:         s.now(),
		events:      map[string][]attendance.Event{emp.ID: events},
		adjustments: make(map[string]payroll.Adjustments),
		previous:    make(map[string]payroll.SalaryRecord),
	}

	prev, err := s.salaryRepo.LatestBefore(ctx, emp.ID, req.Month)
	switch {
	case err == nil:
		in.previous[emp.ID] = prev
	case !errors.Is(err, payroll.ErrSalaryRecordNotFound):
		return payroll.FinalizeResponse{}, fmt.Errorf("failed to get previous salary record: %w", err)
	}

	adj, err := s.adjustmentRepo.Get(ctx, emp.ID, req.Month)
	if err != nil {
		return payroll.FinalizeResponse{}, fmt.Errorf("failed to get adjustments: %w", err)
	}
	in.adjustments[emp.ID] = adj

	res, record, err := s.finalizeOne(ctx, NewPipeline(tables), newContext(emp, req.Month, in), req.Override)
	if err != nil {
		return payroll.FinalizeResponse{}, err
	}

	switch res.Status {
	case payroll.StatusInserted:
		return payroll.FinalizeResponse{Outcome: payroll.OutcomeInserted, Record: record}, nil
	case payroll.StatusReplaced:
		return payroll.FinalizeResponse{Outcome: payroll.OutcomeReplaced, Record: record}, nil
	}

	if res.Reason == payroll.SkipRecordExists {
		existing, err := s.salaryRepo.Get(ctx, emp.ID, req.Month)
		if err != nil {
			return payroll.FinalizeResponse{}, fmt.Errorf("failed to get existing salary record: %w", err)
		}
		record = &existing
	}
	return payroll.FinalizeResponse{Outcome: payroll.OutcomeSkipped, Reason: res.Reason, Record: record}, nil
}

// ========== QUERIES ==========

func (s *PayrollServiceImpl) GetRecord(ctx context.Context, employeeID string, month period.Period) (payroll.SalaryRecord, error) {
	record, err := s.salaryRepo.Get(ctx, employeeID, month)
	if err != nil {
		return payroll.SalaryRecord{}, fmt.Errorf("failed to get salary record: %w", err)
	}
	return record, nil
}

func (s *PayrollServiceImpl) ListRecords(ctx context.Context, month period.Period) ([]payroll.SalaryRecord, error) {
	if month.IsZero() {
		return nil, payroll.ErrInvalidPeriod
	}
	records, err := s.salaryRepo.ListByMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary records: %w", err)
	}
	return records, nil
}

// ========== ADJUSTMENTS ==========

func (s *PayrollServiceImpl) UpsertAdjustments(ctx context.Context, req payroll.AdjustmentsRequest) (payroll.Adjustments, error) {
	if err := req.Validate(); err != nil {
		return payroll.Adjustments{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return payroll.Adjustments{}, fmt.Errorf("failed to get employee: %w", err)
	}

	adj := req.ToAdjustments()
	adj.UpdatedAt = s.now()
	saved, err := s.adjustmentRepo.Upsert(ctx, adj)
	if err != nil {
		return payroll.Adjustments{}, fmt.Errorf("failed to save adjustments: %w", err)
	}
	return saved, nil
}
