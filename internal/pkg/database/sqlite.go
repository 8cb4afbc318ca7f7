package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite wraps a go-sqlite3 handle for single-node deployments and tests.
type SQLite struct {
	*sql.DB
}

// NewSQLiteDB opens path, or an in-memory database for ":memory:".
func NewSQLiteDB(ctx context.Context, path string) (*SQLite, error) {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
		if !memory {
			dsn += "&_journal_mode=WAL"
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLite{DB: db}, nil
}

// Migrate executes schema, which must be idempotent.
func (s *SQLite) Migrate(ctx context.Context, schema string) error {
	if _, err := s.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
