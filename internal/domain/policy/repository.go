package policy

import (
	"context"
	"time"
)

// Store is the read-only source of policy tables. Implementations load once and serve snapshots.
type Store interface {
	Holidays(ctx context.Context) (map[string]string, error)
	FestivalSchedule(ctx context.Context) (map[time.Month]FestivalBonus, error)
	TaxSlabs(ctx context.Context) ([]TaxSlab, error)

	// Tables returns the full snapshot used for one payroll run.
	Tables(ctx context.Context) (Tables, error)
}
