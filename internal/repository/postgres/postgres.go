// Package postgres implements the repository interfaces on PostgreSQL
// through sqlx. Either database/sql driver can sit underneath: "postgres"
// (lib/pq) or "pgx" (jackc/pgx stdlib).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Drivers accepted by New.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

const uniqueViolation = "23505"

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// DB implements repository.Store on a *sqlx.DB.
type DB struct {
	conn *sqlx.DB
}

// New connects with the named driver, verifies the connection and creates
// the schema.
func New(ctx context.Context, driver, dsn string, opts Options) (*DB, error) {
	if driver != DriverPQ && driver != DriverPGX {
		return nil, fmt.Errorf("postgres: unsupported driver %q", driver)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(opts.MaxIdleConns)
	}
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := NewWithDB(conn)
	if err := db.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

// NewWithDB wraps an existing handle without touching the schema.
func NewWithDB(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Migrate creates the schema. seq gives predictions a stable insertion
// order; there is no foreign key from predictions to users.
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_new_user   BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			seq             BIGSERIAL,
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			date            TIMESTAMPTZ NOT NULL,
			predicted_marks DOUBLE PRECISION NOT NULL,
			status          TEXT NOT NULL,
			form_data       JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_user_seq ON predictions(user_id, seq)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrating schema: %w", err)
		}
	}
	return nil
}

// isUniqueViolation recognizes SQLSTATE 23505 from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
