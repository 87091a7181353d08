package store

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store is the interchange archive.
type Store struct {
	db    *sqlx.DB
	now   func() time.Time
	runID func() (uuid.UUID, error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for archived_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRunIDs replaces the run ID generator (UUIDv7 by default).
func WithRunIDs(gen func() (uuid.UUID, error)) Option {
	return func(s *Store) { s.runID = gen }
}

// Open connects to dsn, applies driver settings and creates the schema.
// It is safe to call on an existing archive.
func Open(dsn string, opts ...Option) (*Store, error) {
	driver, source := driverFor(dsn)
	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}

	if driver == DriverSQLite {
		// One writer at a time avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	slog.Debug("opened archive", "driver", driver)
	return New(db, opts...), nil
}

// New wraps an open database whose schema already exists.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now, runID: uuid.NewV7}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// driverFor picks the driver from the DSN scheme.
func driverFor(dsn string) (driver, source string) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres, dsn
	}
	return DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
}

func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
