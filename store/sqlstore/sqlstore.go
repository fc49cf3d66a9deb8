/*
Package sqlstore provides a SQL-backed implementation of the storage interfaces.

PURPOSE:
  Persists tenants, platform billing schedules, fee structures, students
  and payments. The same code runs on SQLite (default, tests) and
  PostgreSQL: queries are written with "?" placeholders and rebound per
  driver by sqlx.

INTERFACES IMPLEMENTED:
  generic.PaymentStore:   Append-only payment persistence
  billing.ScheduleSource: Tenant billing schedules for the overdue gate

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the payments table
  - No DELETE statements on the payments table (Reset aside, demo only)
  - idempotency_key is UNIQUE; violations map to ErrDuplicateIdempotencyKey

KEY TABLES:
  payments:                 Immutable log of money received
  fee_structures:           Fee configuration as JSON (versioned)
  students:                 Billed subjects and their admission dates
  tenants:                  Schools
  tenant_billing_schedules: Platform invoices per tenant

STORAGE FORMATS:
  Dates are TEXT "YYYY-MM-DD" (sortable, dialect neutral), money is TEXT
  holding the exact decimal, timestamps are RFC3339 UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened with a single
  connection so ":memory:" databases are shared by every query.

USAGE:
  store, err := sqlstore.Open("sqlite3", "./data/dues.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := generic.NewLedger(store)

MIGRATION:
  Schema is auto-migrated on Open().

SEE ALSO:
  - generic/store.go: PaymentStore interface
  - generic/store/memory.go: In-memory implementation for testing
  - billing/billing.go: ScheduleSource
*/
package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/warp/dues-engine/generic"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store implements all storage interfaces on a sqlx handle.
type Store struct {
	db     *sqlx.DB
	driver string
	mu     sync.RWMutex
}

// New opens a SQLite store at dbPath. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open connects to the given driver ("sqlite3" or "postgres") and migrates
// the schema.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_foreign_keys=on&_journal_mode=WAL"
		}
	case DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, driver: driver}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Payments (append-only)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		fee_item_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date_paid TEXT NOT NULL,
		reference TEXT,
		idempotency_key TEXT UNIQUE,
		recorded_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_student_date
		ON payments(student_id, date_paid);

	-- Fee structures
	CREATE TABLE IF NOT EXISTS fee_structures (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fee_structures_tenant
		ON fee_structures(tenant_id);

	-- Students
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		guardian_email TEXT,
		admission_date TEXT NOT NULL,
		fee_structure_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_tenant
		ON students(tenant_id);

	-- Tenants
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Platform billing schedules
	CREATE TABLE IF NOT EXISTS tenant_billing_schedules (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		paid_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_billing_schedules_tenant_due
		ON tenant_billing_schedules(tenant_id, due_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes all data. Used when loading demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"payments", "students", "fee_structures", "tenant_billing_schedules", "tenants"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "failed to reset %s", table)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// execer is satisfied by both *sqlx.DB and *sqlx.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Rebind(query string) string
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}

func parseDate(s string) generic.TimePoint {
	tp, _ := generic.ParseDate(s)
	return tp
}

func parseTimestamp(s string) generic.TimePoint {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return generic.TimePoint{}
	}
	return generic.At(t)
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func notFound(kind, id string) error {
	return &generic.NotFoundError{Kind: kind, ID: id}
}
