package payroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/sse"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	svc         *PayrollServiceImpl
	salaries    *fakeSalaries
	adjustments *fakeAdjustments
}

func newFixture(t *testing.T, workers int, employees fakeEmployees, events fakeEvents) serviceFixture {
	t.Helper()
	salaries := newFakeSalaries()
	adjustments := &fakeAdjustments{}
	svc := NewPayrollService(
		employees,
		events,
		salaries,
		adjustments,
		staticPolicy{tables: policy.DefaultTables()},
		lock.NewMemoryLocker(),
		workers,
	).(*PayrollServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, time.July, 2, 9, 0, 0, 0, time.UTC) }
	return serviceFixture{svc: svc, salaries: salaries, adjustments: adjustments}
}

func staff(ids ...string) fakeEmployees {
	out := make(fakeEmployees, 0, len(ids))
	for _, id := range ids {
		e := testEmployee()
		e.ID = id
		e.Name = "Employee " + id
		out = append(out, e)
	}
	return out
}

func statusOf(res payroll.BatchResult, employeeID string) payroll.EmployeeResult {
	for _, r := range res.Results {
		if r.EmployeeID == employeeID {
			return r
		}
	}
	return payroll.EmployeeResult{}
}

func TestRunBatch_IdempotentUnlessOverride(t *testing.T) {
	f := newFixture(t, 4, staff("a", "b", "c"), nil)
	ctx := context.Background()

	first, err := f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	original, err := f.salaries.Get(ctx, "a", june)
	require.NoError(t, err)

	second, err := f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, payroll.SkipRecordExists, statusOf(second, "a").Reason)

	unchanged, err := f.salaries.Get(ctx, "a", june)
	require.NoError(t, err)
	assert.Equal(t, original.ID, unchanged.ID)

	third, err := f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june, Override: true})
	require.NoError(t, err)
	assert.Equal(t, 3, third.Replaced)

	replaced, err := f.salaries.Get(ctx, "a", june)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, replaced.ID)

	records, err := f.svc.ListRecords(ctx, june)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRunBatch_SkipsUnknownAndNonBillable(t *testing.T) {
	employees := staff("a", "zero")
	employees[1].FixedSalary = decimal.Zero
	f := newFixture(t, 2, employees, nil)

	res, err := f.svc.RunBatch(context.Background(), payroll.RunBatchRequest{
		Month:       june,
		EmployeeIDs: []string{"a", "zero", "ghost"},
	})
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusInserted, statusOf(res, "a").Status)
	assert.Equal(t, payroll.SkipNoBillableData, statusOf(res, "zero").Reason)
	assert.Equal(t, payroll.SkipEmployeeNotFound, statusOf(res, "ghost").Reason)
	assert.Equal(t, 2, res.Skipped)

	_, err = f.salaries.Get(context.Background(), "zero", june)
	assert.ErrorIs(t, err, payroll.ErrSalaryRecordNotFound)
}

func TestRunBatch_PerEmployeeErrorDoesNotStopSiblings(t *testing.T) {
	employees := staff("a", "b", "c")
	employees[1].Name = ""
	f := newFixture(t, 1, employees, nil)

	res, err := f.svc.RunBatch(context.Background(), payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)

	assert.Equal(t, payroll.StatusError, statusOf(res, "b").Status)
	assert.Equal(t, payroll.StatusInserted, statusOf(res, "a").Status)
	assert.Equal(t, payroll.StatusInserted, statusOf(res, "c").Status)
	assert.False(t, res.Aborted)
}

func TestRunBatch_StoreUnavailableAbortsRemaining(t *testing.T) {
	f := newFixture(t, 1, staff("a", "b", "c", "d"), nil)
	f.salaries.failFor = "b"

	res, err := f.svc.RunBatch(context.Background(), payroll.RunBatchRequest{Month: june})
	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrStoreUnavailable)

	assert.True(t, res.Aborted)
	assert.Equal(t, payroll.StatusInserted, statusOf(res, "a").Status)
	assert.Equal(t, payroll.StatusError, statusOf(res, "b").Status)
	assert.Equal(t, payroll.StatusAborted, statusOf(res, "c").Status)
	assert.Equal(t, payroll.StatusAborted, statusOf(res, "d").Status)
	assert.Equal(t, 1, f.salaries.upserts)
}

func TestRunBatch_CarriesLeaveBalanceForward(t *testing.T) {
	f := newFixture(t, 1, staff("a"), nil)
	ctx := context.Background()
	may := june.Previous()

	_, err := f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: may})
	require.NoError(t, err)
	_, err = f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)

	mayRecord, err := f.salaries.Get(ctx, "a", may)
	require.NoError(t, err)
	juneRecord, err := f.salaries.Get(ctx, "a", june)
	require.NoError(t, err)

	accrual := dec("14").Div(dec("12"))
	assertDec(t, "1.17", mayRecord.Leave.ClosingBalance.Round(2))
	assert.True(t, juneRecord.Leave.OpeningBalance.Equal(mayRecord.Leave.ClosingBalance))
	assertDec(t, "2.33", juneRecord.Leave.ClosingBalance.Round(2))
	assert.True(t, juneRecord.Leave.ClosingBalance.Sub(accrual.Mul(dec("2"))).Abs().LessThan(dec("0.000001")))
	assert.False(t, hasWarning(juneRecord, payroll.WarnStaleOpeningBalance))
}

func hasWarning(record payroll.SalaryRecord, code payroll.WarningCode) bool {
	for _, w := range record.AuditNote {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestRunBatch_OpeningBalanceSkipsMissingMonth(t *testing.T) {
	f := newFixture(t, 1, staff("a"), nil)
	ctx := context.Background()
	april := june.Previous().Previous()

	_, err := f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: april})
	require.NoError(t, err)
	_, err = f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)

	aprilRecord, err := f.salaries.Get(ctx, "a", april)
	require.NoError(t, err)
	juneRecord, err := f.salaries.Get(ctx, "a", june)
	require.NoError(t, err)

	assert.True(t, aprilRecord.Leave.ClosingBalance.IsPositive())
	assert.True(t, juneRecord.Leave.OpeningBalance.Equal(aprilRecord.Leave.ClosingBalance),
		"june opening %s, april closing %s", juneRecord.Leave.OpeningBalance, aprilRecord.Leave.ClosingBalance)
	assert.True(t, hasWarning(juneRecord, payroll.WarnStaleOpeningBalance))
}

func TestFinalize_OpeningBalanceSkipsMissingMonth(t *testing.T) {
	f := newFixture(t, 1, staff("a"), nil)
	ctx := context.Background()
	april := june.Previous().Previous()

	first, err := f.svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "a", Month: april})
	require.NoError(t, err)
	require.NotNil(t, first.Record)

	res, err := f.svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "a", Month: june})
	require.NoError(t, err)
	require.NotNil(t, res.Record)

	assert.True(t, res.Record.Leave.OpeningBalance.Equal(first.Record.Leave.ClosingBalance))
	assert.True(t, hasWarning(*res.Record, payroll.WarnStaleOpeningBalance))
}

func TestRunBatch_UsesAdjustments(t *testing.T) {
	f := newFixture(t, 1, staff("a"), nil)
	ctx := context.Background()

	_, err := f.svc.UpsertAdjustments(ctx, payroll.AdjustmentsRequest{
		EmployeeID: "a",
		Month:      june,
		Advance:    dec("750"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpsertAdjustments(ctx, payroll.AdjustmentsRequest{EmployeeID: "ghost", Month: june})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = f.svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)

	r, err := f.svc.GetRecord(ctx, "a", june)
	require.NoError(t, err)
	assertDec(t, "750", r.Deductions.Advance)
}

func TestFinalize(t *testing.T) {
	out := time.Date(2024, time.June, 3, 18, 0, 0, 0, time.UTC)
	events := fakeEvents{{
		EmployeeID: "a",
		Date:       time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		CheckIn:    time.Date(2024, time.June, 3, 9, 0, 0, 0, time.UTC),
		CheckOut:   &out,
	}}
	f := newFixture(t, 1, staff("a"), events)
	ctx := context.Background()

	first, err := f.svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "a", Month: june})
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeInserted, first.Outcome)
	require.NotNil(t, first.Record)
	assert.Equal(t, 1, first.Record.Attendance.FullDays)

	again, err := f.svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "a", Month: june})
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeSkipped, again.Outcome)
	require.NotNil(t, again.Record)
	assert.Equal(t, first.Record.ID, again.Record.ID)

	replaced, err := f.svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "a", Month: june, Override: true})
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeReplaced, replaced.Outcome)

	missing, err := f.svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "ghost", Month: june})
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeSkipped, missing.Outcome)
	assert.Equal(t, payroll.SkipEmployeeNotFound, missing.Reason)
}

func TestFinalize_ValidationError(t *testing.T) {
	bad := staff("a")
	bad[0].JoinDate = time.Time{}
	f := newFixture(t, 1, bad, nil)

	_, err := f.svc.Finalize(context.Background(), payroll.FinalizeRequest{EmployeeID: "a", Month: june})
	assert.ErrorIs(t, err, payroll.ErrValidation)
}

func TestFinalize_ConcurrentSameKeyWritesOnce(t *testing.T) {
	f := newFixture(t, 1, staff("a"), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	outcomes := make([]payroll.Outcome, 10)
	errs := make([]error, 10)
	for i := range outcomes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "a", Month: june})
			outcomes[i], errs[i] = resp.Outcome, err
		}()
	}
	wg.Wait()

	inserted := 0
	for i, o := range outcomes {
		require.NoError(t, errs[i])
		if o == payroll.OutcomeInserted {
			inserted++
		} else {
			assert.Equal(t, payroll.OutcomeSkipped, o)
		}
	}
	assert.Equal(t, 1, inserted)

	records, err := f.svc.ListRecords(ctx, june)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRunBatch_Validation(t *testing.T) {
	f := newFixture(t, 1, staff("a"), nil)

	_, err := f.svc.RunBatch(context.Background(), payroll.RunBatchRequest{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, payroll.ErrStoreUnavailable))

	_, err = f.svc.ListRecords(context.Background(), period.Period{})
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

var _ attendance.AttendanceRepository = fakeEvents(nil)

func TestRunBatch_PublishesProgress(t *testing.T) {
	hub := sse.NewHub()
	events, cleanup := hub.Subscribe(june.String())
	defer cleanup()

	f := newFixture(t, 2, staff("a", "b"), nil)
	WithProgress(hub)(f.svc)

	_, err := f.svc.RunBatch(context.Background(), payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)

	require.Len(t, events, 3)
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		ev := <-events
		assert.Equal(t, EventEmployeeResult, ev.Event)
		res, ok := ev.Data.(payroll.EmployeeResult)
		require.True(t, ok)
		assert.Equal(t, payroll.StatusInserted, res.Status)
		seen[res.EmployeeID] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)

	final := <-events
	assert.Equal(t, EventBatchFinished, final.Event)
	result, ok := final.Data.(payroll.BatchResult)
	require.True(t, ok)
	assert.Equal(t, 2, result.Inserted)
	assert.False(t, result.Aborted)
}
