// Package database provides database connection and adapter management.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBAdapter provides database-specific query adaptations. Queries everywhere
// else are written with ? placeholders; the connection wrapper rebinds them
// for the active driver.
type DBAdapter interface {
	// Name is the configuration name of the backend.
	Name() string

	// DriverName is the database/sql driver registration name.
	DriverName() string

	// CaseInsensitiveLike returns a case-insensitive LIKE predicate for the
	// column with a single ? placeholder for the pattern. Patterns arrive
	// with LIKE metacharacters already backslash-escaped.
	CaseInsensitiveLike(column string) string

	// InsertReturningID runs an INSERT and returns the generated key from
	// idColumn, using RETURNING where the backend supports it and
	// LastInsertId elsewhere.
	InsertReturningID(ctx context.Context, db *sqlx.DB, query, idColumn string, args ...any) (int64, error)
}

// PostgresAdapter implements DBAdapter for PostgreSQL.
type PostgresAdapter struct{}

func (p *PostgresAdapter) Name() string       { return "postgres" }
func (p *PostgresAdapter) DriverName() string { return "postgres" }

func (p *PostgresAdapter) CaseInsensitiveLike(column string) string {
	// PostgreSQL uses ILIKE for case-insensitive matching; backslash is
	// already the escape character.
	return column + " ILIKE ?"
}

func (p *PostgresAdapter) InsertReturningID(ctx context.Context, db *sqlx.DB, query, idColumn string, args ...any) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, db.Rebind(query+" RETURNING "+idColumn), args...).Scan(&id)
	return id, err
}

// MySQLAdapter implements DBAdapter for MySQL/MariaDB.
type MySQLAdapter struct{}

func (m *MySQLAdapter) Name() string       { return "mysql" }
func (m *MySQLAdapter) DriverName() string { return "mysql" }

func (m *MySQLAdapter) CaseInsensitiveLike(column string) string {
	// MySQL is usually case-insensitive by default, but we can be explicit.
	return "LOWER(" + column + ") LIKE LOWER(?)"
}

func (m *MySQLAdapter) InsertReturningID(ctx context.Context, db *sqlx.DB, query, _ string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SQLiteAdapter implements DBAdapter for SQLite.
type SQLiteAdapter struct{}

func (s *SQLiteAdapter) Name() string       { return "sqlite" }
func (s *SQLiteAdapter) DriverName() string { return "sqlite3" }

func (s *SQLiteAdapter) CaseInsensitiveLike(column string) string {
	// SQLite LIKE is case-insensitive for ASCII but has no default escape
	// character, so the clause must name one.
	return column + ` LIKE ? ESCAPE '\'`
}

func (s *SQLiteAdapter) InsertReturningID(ctx context.Context, db *sqlx.DB, query, _ string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AdapterFor returns the adapter for a configured driver name.
func AdapterFor(driver string) (DBAdapter, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		return &PostgresAdapter{}, nil
	case "mysql", "mariadb":
		return &MySQLAdapter{}, nil
	case "sqlite", "sqlite3":
		return &SQLiteAdapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
