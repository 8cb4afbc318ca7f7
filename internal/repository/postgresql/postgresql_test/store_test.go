package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEmployee(t *testing.T, setup *TestDatabaseSetup, id string) {
	t.Helper()
	repo := postgresql.NewEmployeeRepository(setup.DB)
	require.NoError(t, repo.Save(context.Background(), employee.Employee{
		ID:          id,
		Name:        "Asha " + id,
		FixedSalary: decimal.NewFromInt(30000),
		JoinDate:    time.Date(2022, time.April, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func TestEmployeeRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup, "E001")

	repo := postgresql.NewEmployeeRepository(setup.DB)
	emp, err := repo.GetByID(ctx, "E001")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30000).Equal(emp.FixedSalary))
	assert.Nil(t, emp.RevisedSalary)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestEmployeeRepositorySaveAllIsAtomic(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(setup.DB)

	join := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveAll(ctx, []employee.Employee{
		{ID: "E010", Name: "Ravi", FixedSalary: decimal.NewFromInt(25000), JoinDate: join},
		{ID: "E011", Name: "Meera", FixedSalary: decimal.NewFromInt(28000), JoinDate: join},
	}))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// A negative salary violates the schema and rolls back E012 as well.
	err = repo.SaveAll(ctx, []employee.Employee{
		{ID: "E012", Name: "Kiran", FixedSalary: decimal.NewFromInt(26000), JoinDate: join},
		{ID: "E013", Name: "Dev", FixedSalary: decimal.NewFromInt(-1), JoinDate: join},
	})
	require.Error(t, err)

	_, err = repo.GetByID(ctx, "E012")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAttendanceRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup, "E001")

	repo := postgresql.NewAttendanceRepository(setup.DB)
	day := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	in := day.Add(9 * time.Hour)

	_, err := repo.Append(ctx, attendance.Event{
		ID: uuid.NewString(), EmployeeID: "E001", Date: day, CheckIn: in, Method: attendance.MethodBiometric,
	})
	require.NoError(t, err)

	_, err = repo.Append(ctx, attendance.Event{
		ID: uuid.NewString(), EmployeeID: "E001", Date: day, CheckIn: in, Method: attendance.MethodBiometric,
	})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	open, err := repo.GetOpenSessions(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, open, 1)

	resolved, err := repo.ResolveCheckout(ctx, "E001", day, in.Add(8*time.Hour))
	require.NoError(t, err)
	assert.True(t, resolved.Resolved())

	_, err = repo.ResolveCheckout(ctx, "E001", day, in.Add(9*time.Hour))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	_, err = repo.ResolveCheckout(ctx, "E001", day.AddDate(0, 0, 1), in)
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	events, err := repo.EventsInRange(ctx, day, day)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSalaryRepositoryUpsert(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup, "E001")

	repo := postgresql.NewSalaryRepository(setup.DB)
	month := period.New(2024, time.June)
	record := payroll.SalaryRecord{
		ID:         uuid.NewString(),
		EmployeeID: "E001",
		Month:      month,
		NetSalary:  decimal.RequireFromString("4349.00"),
	}

	outcome, err := repo.Upsert(ctx, record, false)
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeInserted, outcome)

	record.ID = uuid.NewString()
	record.NetSalary = decimal.NewFromInt(1)
	outcome, err = repo.Upsert(ctx, record, false)
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeSkipped, outcome)

	stored, err := repo.Get(ctx, "E001", month)
	require.NoError(t, err)
	assert.Equal(t, "4349", stored.NetSalary.String())

	outcome, err = repo.Upsert(ctx, record, true)
	require.NoError(t, err)
	assert.Equal(t, payroll.OutcomeReplaced, outcome)

	stored, err = repo.Get(ctx, "E001", month)
	require.NoError(t, err)
	assert.Equal(t, "1", stored.NetSalary.String())

	_, err = repo.Get(ctx, "E001", month.Next())
	assert.ErrorIs(t, err, payroll.ErrSalaryRecordNotFound)
}

func TestSalaryRepositoryLatestBefore(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup, "E001")
	seedEmployee(t, setup, "E002")

	repo := postgresql.NewSalaryRepository(setup.DB)
	april := period.New(2024, time.April)
	june := period.New(2024, time.June)
	for _, r := range []payroll.SalaryRecord{
		{ID: uuid.NewString(), EmployeeID: "E001", Month: april},
		{ID: uuid.NewString(), EmployeeID: "E001", Month: june},
		{ID: uuid.NewString(), EmployeeID: "E002", Month: april},
	} {
		_, err := repo.Upsert(ctx, r, false)
		require.NoError(t, err)
	}

	latest, err := repo.LatestBefore(ctx, "E001", june)
	require.NoError(t, err)
	assert.Equal(t, april, latest.Month)

	_, err = repo.LatestBefore(ctx, "E002", april)
	assert.ErrorIs(t, err, payroll.ErrSalaryRecordNotFound)

	list, err := repo.ListLatestBefore(ctx, june.Next())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, june, list[0].Month)
	assert.Equal(t, april, list[1].Month)
}

func TestAdjustmentRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	seedEmployee(t, setup, "E001")

	repo := postgresql.NewAdjustmentRepository(setup.DB)
	month := period.New(2024, time.June)

	empty, err := repo.Get(ctx, "E001", month)
	require.NoError(t, err)
	assert.True(t, empty.Advance.IsZero())

	_, err = repo.Upsert(ctx, payroll.Adjustments{
		EmployeeID: "E001",
		Month:      month,
		Advance:    decimal.NewFromInt(500),
		Allowances: map[string]decimal.Decimal{"travel": decimal.NewFromInt(250)},
	})
	require.NoError(t, err)

	list, err := repo.ListByMonth(ctx, month)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, decimal.NewFromInt(500).Equal(list[0].Advance))
	assert.True(t, decimal.NewFromInt(250).Equal(list[0].Allowances["travel"]))
}
