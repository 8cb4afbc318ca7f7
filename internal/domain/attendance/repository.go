package attendance

import (
	"context"
	"time"
)

// AttendanceRepository stores attendance events. Dates are calendar dates; ranges are inclusive.
type AttendanceRepository interface {
	// EventsFor returns an employee's events with from <= date <= to, ordered by date.
	EventsFor(ctx context.Context, employeeID string, from, to time.Time) ([]Event, error)

	// EventsInRange returns every employee's events in the range, used for the batch bulk read.
	EventsInRange(ctx context.Context, from, to time.Time) ([]Event, error)

	// GetByEmployeeAndDate returns nil when the employee has no event on date.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Event, error)

	// Append inserts a new event. Returns ErrAlreadyCheckedIn if the date already has one.
	Append(ctx context.Context, event Event) (Event, error)

	// ResolveCheckout sets the check-out of the open event on date.
	// Returns ErrNotCheckedIn if there is none, ErrAlreadyCheckedOut if it is already resolved.
	ResolveCheckout(ctx context.Context, employeeID string, date time.Time, checkOut time.Time) (Event, error)

	// GetOpenSessions returns unresolved events dated strictly before the given date.
	GetOpenSessions(ctx context.Context, before time.Time) ([]Event, error)
}
