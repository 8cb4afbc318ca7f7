package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/policyfile"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/sqlite"
	attendanceservice "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	payrollservice "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var june = period.New(2024, time.June)

func openStore(t *testing.T) *database.SQLite {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *database.SQLite, ids ...string) {
	t.Helper()
	repo := sqlite.NewEmployeeRepository(db)
	for _, id := range ids {
		require.NoError(t, repo.Save(context.Background(), employee.Employee{
			ID:          id,
			Name:        "Employee " + id,
			Department:  "Finance",
			FixedSalary: decimal.NewFromInt(30000),
			JoinDate:    time.Date(2020, time.January, 6, 0, 0, 0, 0, time.UTC),
		}))
	}
}

func TestEmployeeRepository(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "b", "a")

	repo := sqlite.NewEmployeeRepository(db)
	revised := decimal.NewFromInt(36000)
	require.NoError(t, repo.Save(ctx, employee.Employee{
		ID: "a", Name: "Asha", FixedSalary: decimal.NewFromInt(30000), RevisedSalary: &revised,
		JoinDate: time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC),
	}))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	a, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Asha", a.Name)
	require.NotNil(t, a.RevisedSalary)
	assert.True(t, revised.Equal(a.MonthlySalary()))
	assert.Equal(t, "2021-03-01", period.DateKey(a.JoinDate))

	_, err = repo.GetByID(ctx, "zz")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAttendanceRepository(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "e1")

	repo := sqlite.NewAttendanceRepository(db)
	day := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	in := day.Add(9 * time.Hour)
	confidence := 0.97

	created, err := repo.Append(ctx, attendance.Event{
		ID: uuid.NewString(), EmployeeID: "e1", Date: day, CheckIn: in,
		Method: attendance.MethodBiometric, MatchConfidence: &confidence,
	})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = repo.Append(ctx, attendance.Event{ID: uuid.NewString(), EmployeeID: "e1", Date: day, CheckIn: in, Method: attendance.MethodManual})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	got, err := repo.GetByEmployeeAndDate(ctx, "e1", day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Resolved())
	require.NotNil(t, got.MatchConfidence)
	assert.InDelta(t, 0.97, *got.MatchConfidence, 1e-9)
	assert.True(t, in.Equal(got.CheckIn))

	none, err := repo.GetByEmployeeAndDate(ctx, "e1", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, none)

	open, err := repo.GetOpenSessions(ctx, day)
	require.NoError(t, err)
	assert.Empty(t, open)
	open, err = repo.GetOpenSessions(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, open, 1)

	resolved, err := repo.ResolveCheckout(ctx, "e1", day, in.Add(8*time.Hour))
	require.NoError(t, err)
	require.True(t, resolved.Resolved())
	assert.True(t, in.Add(8*time.Hour).Equal(*resolved.CheckOut))

	_, err = repo.ResolveCheckout(ctx, "e1", day, in.Add(9*time.Hour))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	_, err = repo.ResolveCheckout(ctx, "e1", day.AddDate(0, 0, 2), in)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	events, err := repo.EventsFor(ctx, "e1", june.Start(time.UTC), june.End(time.UTC))
	require.NoError(t, err)
	assert.Len(t, events, 1)
	events, err = repo.EventsInRange(ctx, day.AddDate(0, 0, 1), june.End(time.UTC))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSalaryRepositoryUpsert(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "e1")

	repo := sqlite.NewSalaryRepository(db)
	record := payroll.SalaryRecord{
		ID:         uuid.NewString(),
		EmployeeID: "e1",
		Month:      june,
		NetSalary:  decimal.RequireFromString("4349.00"),
		AuditNote:  []payroll.Warning{payroll.NewWarning(payroll.WarnMissingFestivalEntry, "no festival entry for June")},
	}

	outcome, err := repo.Upsert(ctx, record, false)
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeInserted, outcome)

	changed := record
	changed.NetSalary = decimal.NewFromInt(1)
	outcome, err = repo.Upsert(ctx, changed, false)
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeSkipped, outcome)

	stored, err := repo.Get(ctx, "e1", june)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4349).Equal(stored.NetSalary))
	assert.Equal(t, june, stored.Month)
	require.Len(t, stored.AuditNote, 1)

	outcome, err = repo.Upsert(ctx, changed, true)
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeReplaced, outcome)

	list, err := repo.ListByMonth(ctx, june)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.NewFromInt(1).Equal(list[0].NetSalary))

	_, err = repo.Get(ctx, "e1", june.Next())
	assert.ErrorIs(t, err, payroll.ErrSalaryRecordNotFound)
}

func TestSalaryRepositoryLatestBefore(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "e1", "e2")

	repo := sqlite.NewSalaryRepository(db)
	april := june.Previous().Previous()
	for _, r := range []payroll.SalaryRecord{
		{ID: uuid.NewString(), EmployeeID: "e1", Month: april, NetSalary: decimal.NewFromInt(1)},
		{ID: uuid.NewString(), EmployeeID: "e1", Month: june, NetSalary: decimal.NewFromInt(2)},
		{ID: uuid.NewString(), EmployeeID: "e2", Month: april, NetSalary: decimal.NewFromInt(3)},
	} {
		_, err := repo.Upsert(ctx, r, false)
		require.NoError(t, err)
	}

	latest, err := repo.LatestBefore(ctx, "e1", june)
	require.NoError(t, err)
	assert.Equal(t, april, latest.Month)

	latest, err = repo.LatestBefore(ctx, "e1", june.Next())
	require.NoError(t, err)
	assert.Equal(t, june, latest.Month)

	_, err = repo.LatestBefore(ctx, "e1", april)
	assert.ErrorIs(t, err, payroll.ErrSalaryRecordNotFound)

	list, err := repo.ListLatestBefore(ctx, june.Next())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "e1", list[0].EmployeeID)
	assert.Equal(t, june, list[0].Month)
	assert.Equal(t, "e2", list[1].EmployeeID)
	assert.Equal(t, april, list[1].Month)
}

func TestAdjustmentRepository(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "e1")

	repo := sqlite.NewAdjustmentRepository(db)

	empty, err := repo.Get(ctx, "e1", june)
	require.NoError(t, err)
	assert.Equal(t, "e1", empty.EmployeeID)
	assert.True(t, empty.LeaveTaken.IsZero())

	saved, err := repo.Upsert(ctx, payroll.Adjustments{
		EmployeeID: "e1",
		Month:      june,
		LeaveTaken: decimal.RequireFromString("1.5"),
		Loan:       decimal.NewFromInt(1000),
		Allowances: map[string]decimal.Decimal{"travel": decimal.NewFromInt(250)},
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1.5").Equal(saved.LeaveTaken))
	assert.True(t, decimal.NewFromInt(250).Equal(saved.Allowances["travel"]))

	saved, err = repo.Upsert(ctx, payroll.Adjustments{EmployeeID: "e1", Month: june, Fine: decimal.NewFromInt(50)})
	require.NoError(t, err)
	assert.True(t, saved.Loan.IsZero())
	assert.Nil(t, saved.Allowances)

	list, err := repo.ListByMonth(ctx, june)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func newPayrollService(db *database.SQLite, workers int) payroll.PayrollService {
	return payrollservice.NewPayrollService(
		sqlite.NewEmployeeRepository(db),
		sqlite.NewAttendanceRepository(db),
		sqlite.NewSalaryRepository(db),
		sqlite.NewAdjustmentRepository(db),
		policyfile.NewStore(policy.DefaultTables()),
		lock.NewMemoryLocker(),
		workers,
	)
}

func TestPayrollBatchAgainstStore(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "a", "b", "c")

	svc := newPayrollService(db, 3)

	first, err := svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)

	record, err := svc.GetRecord(ctx, "a", june)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4349).Equal(record.NetSalary), record.NetSalary.String())
	assert.True(t, decimal.RequireFromString("1.17").Equal(record.Leave.ClosingBalance.Round(2)))

	second, err := svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june})
	require.NoError(t, err)
	assert.Equal(t, 3, second.Skipped)

	// The July opening balance is June's closing balance.
	_, err = svc.RunBatch(ctx, payroll.RunBatchRequest{Month: june.Next(), EmployeeIDs: []string{"a"}})
	require.NoError(t, err)
	july, err := svc.GetRecord(ctx, "a", june.Next())
	require.NoError(t, err)
	assert.True(t, record.Leave.ClosingBalance.Equal(july.Leave.OpeningBalance),
		"july opening %s, june closing %s", july.Leave.OpeningBalance, record.Leave.ClosingBalance)
}

func TestConcurrentFinalizeInsertsOnce(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "a")
	svc := newPayrollService(db, 1)

	var wg sync.WaitGroup
	outcomes := make([]payroll.Outcome, 4)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Finalize(ctx, payroll.FinalizeRequest{EmployeeID: "a", Month: june})
			if assert.NoError(t, err) {
				outcomes[i] = res.Outcome
			}
		}(i)
	}
	wg.Wait()

	inserted := 0
	for _, o := range outcomes {
		if o == payroll.OutcomeInserted {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)
}

func TestAttendanceCaptureAgainstStore(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	seed(t, db, "e1")

	svc := attendanceservice.NewAttendanceService(
		sqlite.NewAttendanceRepository(db),
		sqlite.NewEmployeeRepository(db),
		policy.DefaultTables(),
	)

	match := &attendance.FaceMatch{Matched: true, Confidence: 0.93}
	in := time.Date(2024, time.June, 4, 9, 0, 0, 0, time.UTC)

	res, err := svc.Capture(ctx, attendance.CaptureRequest{EmployeeID: "e1", Timestamp: in, FaceMatch: match})
	require.NoError(t, err)
	assert.Equal(t, attendance.ActionCheckIn, res.Action)

	res, err = svc.Capture(ctx, attendance.CaptureRequest{EmployeeID: "e1", Timestamp: in.Add(9 * time.Hour), FaceMatch: match})
	require.NoError(t, err)
	assert.Equal(t, attendance.ActionCheckOut, res.Action)
	require.NotNil(t, res.Record)
	assert.Equal(t, attendance.StatusFullDay, res.Record.Status)

	_, err = svc.Capture(ctx, attendance.CaptureRequest{EmployeeID: "e1", Timestamp: in.Add(10 * time.Hour), FaceMatch: match})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)

	monthly, err := svc.MonthlyAttendance(ctx, "e1", june)
	require.NoError(t, err)
	assert.Equal(t, 1, monthly.Summary.FullDays)
	assert.Equal(t, 1, monthly.Summary.TuesdaysAttended)
}
