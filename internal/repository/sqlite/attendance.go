package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type attendanceRepository struct {
	db *database.SQLite
}

func NewAttendanceRepository(db *database.SQLite) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const eventColumns = `id, employee_id, date, check_in, check_out, method, match_confidence, created_at, updated_at`

func scanEvent(row scanner) (attendance.Event, error) {
	var e attendance.Event
	var date, checkIn, createdAt, updatedAt string
	var checkOut sql.NullString

	err := row.Scan(&e.ID, &e.EmployeeID, &date, &checkIn, &checkOut, &e.Method, &e.MatchConfidence, &createdAt, &updatedAt)
	if err != nil {
		return attendance.Event{}, err
	}

	if e.Date, err = parseDate(date); err != nil {
		return attendance.Event{}, err
	}
	if e.CheckIn, err = parseTime(checkIn); err != nil {
		return attendance.Event{}, err
	}
	if checkOut.Valid {
		out, err := parseTime(checkOut.String)
		if err != nil {
			return attendance.Event{}, err
		}
		e.CheckOut = &out
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return attendance.Event{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return attendance.Event{}, err
	}
	return e, nil
}

func (a *attendanceRepository) queryEvents(ctx context.Context, op, query string, args ...any) ([]attendance.Event, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
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
	query := `SELECT ` + eventColumns + ` FROM attendance_events
		WHERE employee_id = ? AND date BETWEEN ? AND ? ORDER BY date`
	return a.queryEvents(ctx, "list attendance events", query, employeeID, period.DateKey(from), period.DateKey(to))
}

// EventsInRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) EventsInRange(ctx context.Context, from, to time.Time) ([]attendance.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM attendance_events
		WHERE date BETWEEN ? AND ? ORDER BY employee_id, date`
	return a.queryEvents(ctx, "list attendance events", query, period.DateKey(from), period.DateKey(to))
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Event, error) {
	row := a.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM attendance_events WHERE employee_id = ? AND date = ?`,
		employeeID, period.DateKey(date))

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeError("get attendance event", err)
	}
	return &e, nil
}

// Append implements attendance.AttendanceRepository.
func (a *attendanceRepository) Append(ctx context.Context, event attendance.Event) (attendance.Event, error) {
	var checkOut sql.NullString
	if event.CheckOut != nil {
		checkOut = sql.NullString{String: formatTime(*event.CheckOut), Valid: true}
	}

	ts := time.Now().UTC()
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO attendance_events (id, employee_id, date, check_in, check_out, method, match_confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.EmployeeID, period.DateKey(event.Date), formatTime(event.CheckIn), checkOut,
		string(event.Method), event.MatchConfidence, formatTime(ts), formatTime(ts))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Event{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Event{}, storeError("append attendance event", err)
	}

	event.CreatedAt, event.UpdatedAt = ts, ts
	return event, nil
}

// ResolveCheckout implements attendance.AttendanceRepository.
func (a *attendanceRepository) ResolveCheckout(ctx context.Context, employeeID string, date time.Time, checkOut time.Time) (attendance.Event, error) {
	res, err := a.db.ExecContext(ctx, `
		UPDATE attendance_events SET check_out = ?, updated_at = ?
		WHERE employee_id = ? AND date = ? AND check_out IS NULL
	`, formatTime(checkOut), now(), employeeID, period.DateKey(date))
	if err != nil {
		return attendance.Event{}, storeError("resolve checkout", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return attendance.Event{}, storeError("resolve checkout", err)
	}

	existing, err := a.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return attendance.Event{}, err
	}
	if existing == nil {
		return attendance.Event{}, attendance.ErrNotCheckedIn
	}
	if n == 0 {
		return attendance.Event{}, attendance.ErrAlreadyCheckedOut
	}
	return *existing, nil
}

// GetOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSessions(ctx context.Context, before time.Time) ([]attendance.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM attendance_events
		WHERE check_out IS NULL AND date < ? ORDER BY date, employee_id`
	return a.queryEvents(ctx, "list open sessions", query, period.DateKey(before))
}
