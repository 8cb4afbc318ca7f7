package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const eventColumns = `id, employee_id, date, check_in, check_out, method, match_confidence, created_at, updated_at`

func scanEvent(row pgx.Row) (attendance.Event, error) {
	var e attendance.Event
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.Date, &e.CheckIn, &e.CheckOut,
		&e.Method, &e.MatchConfidence, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (a *attendanceRepository) queryEvents(ctx context.Context, op, query string, args ...any) ([]attendance.Event, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError(op, err)
	}
	defer rows.Close()

	var events []attendance.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storeError(op, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(op, err)
	}
	return events, nil
}

// EventsFor implements attendance.AttendanceRepository.
func (a *attendanceRepository) EventsFor(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE employee_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date
	`
	return a.queryEvents(ctx, "list attendance events", query, employeeID, period.DateKey(from), period.DateKey(to))
}

// EventsInRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) EventsInRange(ctx context.Context, from, to time.Time) ([]attendance.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE date BETWEEN $1::date AND $2::date
		ORDER BY employee_id, date
	`
	return a.queryEvents(ctx, "list attendance events", query, period.DateKey(from), period.DateKey(to))
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Event, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + eventColumns + ` FROM attendance_events WHERE employee_id = $1 AND date = $2::date`

	e, err := scanEvent(q.QueryRow(ctx, query, employeeID, period.DateKey(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeError("get attendance event", err)
	}
	return &e, nil
}

// Append implements attendance.AttendanceRepository.
func (a *attendanceRepository) Append(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_events (id, employee_id, date, check_in, check_out, method, match_confidence)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		event.ID, event.EmployeeID, period.DateKey(event.Date), event.CheckIn, event.CheckOut,
		event.Method, event.MatchConfidence,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "uk_attendance_employee_date") {
			return attendance.Event{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Event{}, storeError("append attendance event", err)
	}
	return event, nil
}

// ResolveCheckout implements attendance.AttendanceRepository.
func (a *attendanceRepository) ResolveCheckout(ctx context.Context, employeeID string, date time.Time, checkOut time.Time) (attendance.Event, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_events
		SET check_out = $3, updated_at = NOW()
		WHERE employee_id = $1 AND date = $2::date AND check_out IS NULL
		RETURNING ` + eventColumns

	e, err := scanEvent(q.QueryRow(ctx, query, employeeID, period.DateKey(date), checkOut))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Event{}, storeError("resolve checkout", err)
	}

	existing, err := a.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return attendance.Event{}, err
	}
	if existing == nil {
		return attendance.Event{}, attendance.ErrNotCheckedIn
	}
	return attendance.Event{}, attendance.ErrAlreadyCheckedOut
}

// GetOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSessions(ctx context.Context, before time.Time) ([]attendance.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE check_out IS NULL AND date < $1::date
		ORDER BY date, employee_id
	`
	return a.queryEvents(ctx, "list open sessions", query, period.DateKey(before))
}
