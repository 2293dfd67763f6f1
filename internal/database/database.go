package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options configures the connection pool.
type Options struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DB wraps sqlx with the driver adapter. It rebinds ? placeholders for the
// active driver on every call, so callers write queries in one dialect.
type DB struct {
	db      *sqlx.DB
	adapter DBAdapter
}

// Open opens a connection pool without dialing.
func Open(opts Options) (*DB, error) {
	a, err := AdapterFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(a.DriverName(), opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.Name(), err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	return &DB{db: db, adapter: a}, nil
}

// Connect opens the pool and verifies the connection.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	d, err := Open(opts)
	if err != nil {
		return nil, err
	}
	if err := d.db.PingContext(ctx); err != nil {
		d.db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.adapter.Name(), err)
	}
	return d, nil
}

// New wraps an existing connection, primarily for tests.
func New(db *sql.DB, driver string) (*DB, error) {
	a, err := AdapterFor(driver)
	if err != nil {
		return nil, err
	}
	return &DB{db: sqlx.NewDb(db, a.DriverName()), adapter: a}, nil
}

// DB returns the underlying sqlx handle for advanced operations.
func (d *DB) DB() *sqlx.DB { return d.db }

// Adapter returns the active driver adapter.
func (d *DB) Adapter() DBAdapter { return d.adapter }

// Rebind converts ? placeholders to the driver's placeholder format.
func (d *DB) Rebind(query string) string { return d.db.Rebind(query) }

// Close closes the pool.
func (d *DB) Close() error { return d.db.Close() }

// PingContext verifies the connection is alive.
func (d *DB) PingContext(ctx context.Context) error { return d.db.PingContext(ctx) }

// Select executes a query and scans results into dest (slice of structs).
func (d *DB) Select(dest interface{}, query string, args ...interface{}) error {
	return d.db.Select(dest, d.Rebind(query), args...)
}

// SelectContext executes a query with context and scans results into dest.
func (d *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return d.db.SelectContext(ctx, dest, d.Rebind(query), args...)
}

// Get executes a query expecting a single row and scans into dest (struct).
func (d *DB) Get(dest interface{}, query string, args ...interface{}) error {
	return d.db.Get(dest, d.Rebind(query), args...)
}

// GetContext executes a query with context expecting a single row.
func (d *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return d.db.GetContext(ctx, dest, d.Rebind(query), args...)
}

// Exec executes a query without returning rows.
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.db.Exec(d.Rebind(query), args...)
}

// ExecContext executes a query with context without returning rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return d.db.ExecContext(ctx, d.Rebind(query), args...)
}

// QueryRowContext executes a query with context expecting a single row.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return d.db.QueryRowContext(ctx, d.Rebind(query), args...)
}

// QueryContext executes a query with context returning multiple rows.
func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.Rebind(query), args...)
}

// In expands slice arguments for IN clauses.
// Example: In("SELECT * FROM tickets WHERE ticket_id IN (?)", ids).
func (d *DB) In(query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return d.Rebind(q), a, nil
}

// BeginTxx starts a transaction. Queries run inside it must be rebound with
// Rebind by the caller.
func (d *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return d.db.BeginTxx(ctx, opts)
}

// InsertReturningID runs an INSERT and returns the generated key from idColumn.
func (d *DB) InsertReturningID(ctx context.Context, query, idColumn string, args ...any) (int64, error) {
	return d.adapter.InsertReturningID(ctx, d.db, query, idColumn, args...)
}
