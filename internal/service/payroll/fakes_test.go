package payroll

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type fakeEmployees []employee.Employee

func (f fakeEmployees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	for _, e := range f {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f fakeEmployees) GetAll(_ context.Context) ([]employee.Employee, error) {
	return append([]employee.Employee(nil), f...), nil
}

type fakeEvents []attendance.Event

func (f fakeEvents) EventsFor(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Event, error) {
	var out []attendance.Event
	for _, e := range f {
		if e.EmployeeID == employeeID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f fakeEvents) EventsInRange(_ context.Context, from, to time.Time) ([]attendance.Event, error) {
	var out []attendance.Event
	for _, e := range f {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f fakeEvents) GetByEmployeeAndDate(context.Context, string, time.Time) (*attendance.Event, error) {
	return nil, nil
}

func (f fakeEvents) Append(_ context.Context, e attendance.Event) (attendance.Event, error) {
	return e, nil
}

func (f fakeEvents) ResolveCheckout(context.Context, string, time.Time, time.Time) (attendance.Event, error) {
	return attendance.Event{}, attendance.ErrNotCheckedIn
}

func (f fakeEvents) GetOpenSessions(context.Context, time.Time) ([]attendance.Event, error) {
	return nil, nil
}

type fakeSalaries struct {
	mu      sync.Mutex
	records map[string]payroll.SalaryRecord
	// failFor makes Upsert report the store as unavailable for this employee.
	failFor string
	upserts int
}

func newFakeSalaries() *fakeSalaries {
	return &fakeSalaries{records: make(map[string]payroll.SalaryRecord)}
}

func salaryKey(employeeID string, month period.Period) string {
	return employeeID + "|" + month.String()
}

func (f *fakeSalaries) Upsert(_ context.Context, r payroll.SalaryRecord, override bool) (payroll.Outcome, error) {
	if r.EmployeeID == f.failFor {
		return "", payroll.ErrStoreUnavailable
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++

	k := salaryKey(r.EmployeeID, r.Month)
	if _, ok := f.records[k]; ok {
		if !override {
			return payroll.OutcomeSkipped, nil
		}
		f.records[k] = r
		return payroll.OutcomeReplaced, nil
	}
	f.records[k] = r
	return payroll.OutcomeInserted, nil
}

func (f *fakeSalaries) Get(_ context.Context, employeeID string, month period.Period) (payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[salaryKey(employeeID, month)]
	if !ok {
		return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
	}
	return r, nil
}

func (f *fakeSalaries) ListByMonth(_ context.Context, month period.Period) ([]payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.SalaryRecord
	for _, r := range f.records {
		if r.Month == month {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSalaries) LatestBefore(_ context.Context, employeeID string, month period.Period) (payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	latest, ok := f.latestBefore(month)[employeeID]
	if !ok {
		return payroll.SalaryRecord{}, payroll.ErrSalaryRecordNotFound
	}
	return latest, nil
}

func (f *fakeSalaries) ListLatestBefore(_ context.Context, month period.Period) ([]payroll.SalaryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.SalaryRecord
	for _, r := range f.latestBefore(month) {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeSalaries) latestBefore(month period.Period) map[string]payroll.SalaryRecord {
	latest := make(map[string]payroll.SalaryRecord)
	for _, r := range f.records {
		if !r.Month.Before(month) {
			continue
		}
		if cur, ok := latest[r.EmployeeID]; !ok || cur.Month.Before(r.Month) {
			latest[r.EmployeeID] = r
		}
	}
	return latest
}

type fakeAdjustments struct {
	mu   sync.Mutex
	rows map[string]payroll.Adjustments
}

func (f *fakeAdjustments) Get(_ context.Context, employeeID string, month period.Period) (payroll.Adjustments, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.rows[salaryKey(employeeID, month)]; ok {
		return a, nil
	}
	return payroll.Adjustments{EmployeeID: employeeID, Month: month}, nil
}

func (f *fakeAdjustments) ListByMonth(_ context.Context, month period.Period) ([]payroll.Adjustments, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Adjustments
	for _, a := range f.rows {
		if a.Month == month {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAdjustments) Upsert(_ context.Context, a payroll.Adjustments) (payroll.Adjustments, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rows == nil {
		f.rows = make(map[string]payroll.Adjustments)
	}
	f.rows[salaryKey(a.EmployeeID, a.Month)] = a
	return a, nil
}

type staticPolicy struct {
	tables policy.Tables
}

func (s staticPolicy) Holidays(context.Context) (map[string]string, error) {
	return s.tables.Holidays, nil
}

func (s staticPolicy) FestivalSchedule(context.Context) (map[time.Month]policy.FestivalBonus, error) {
	return s.tables.Festivals, nil
}

func (s staticPolicy) TaxSlabs(context.Context) ([]policy.TaxSlab, error) {
	return s.tables.TaxSlabs, nil
}

func (s staticPolicy) Tables(context.Context) (policy.Tables, error) {
	return s.tables, nil
}
