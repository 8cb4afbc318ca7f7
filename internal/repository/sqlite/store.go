// Package sqlite implements the payroll stores on go-sqlite3. Dates are stored as YYYY-MM-DD text,
// instants as RFC 3339 text in UTC and money as decimal text.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var Schema string

// Open opens path and applies the schema.
func Open(ctx context.Context, path string) (*database.SQLite, error) {
	db, err := database.NewSQLiteDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, Schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func now() string {
	return formatTime(time.Now())
}

// storeError wraps err, marking lock contention and I/O failures as payroll.ErrStoreUnavailable.
func storeError(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("failed to %s: %w: %w", op, payroll.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr, sqlite3.ErrCantOpen, sqlite3.ErrFull:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

type scanner interface {
	Scan(dest ...any) error
}
