package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"shuttleclub/internal/logger"
)

// SQLDB is the database interface used by the member store.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery applies when no threshold is configured.
const DefaultSlowQuery = 50 * time.Millisecond

// maxLoggedStatement caps the statement text attached to slow_query logs.
const maxLoggedStatement = 160

// QueryObserver receives the duration of every database call, labelled by
// statement kind ("select", "insert", "update", "delete", "begin" or "other").
type QueryObserver interface {
	ObserveQuery(kind string, d time.Duration)
}

// TimedDB wraps a *sql.DB, timing every call. Calls at or above the
// threshold are logged at WARN with the statement and the request id.
type TimedDB struct {
	db        *sql.DB
	observer  QueryObserver
	threshold time.Duration
}

// NewTimedDB wraps db. A zero threshold means DefaultSlowQuery; observer may be nil.
// PRE: db is open
func NewTimedDB(db *sql.DB, observer QueryObserver, threshold time.Duration) *TimedDB {
	if threshold <= 0 {
		threshold = DefaultSlowQuery
	}
	return &TimedDB{db: db, observer: observer, threshold: threshold}
}

// RawDB returns the wrapped connection pool.
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// statementKind classifies a statement by its leading keyword. WITH and
// INSERT ... SELECT count by their first verb.
func statementKind(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "other"
	}
	switch kw := strings.ToLower(fields[0]); kw {
	case "select", "insert", "update", "delete", "begin":
		return kw
	case "with":
		return "select"
	}
	return "other"
}

// compactStatement collapses whitespace and truncates for logging.
func compactStatement(query string) string {
	s := strings.Join(strings.Fields(query), " ")
	if len(s) > maxLoggedStatement {
		s = s[:maxLoggedStatement] + "..."
	}
	return s
}

func (t *TimedDB) observe(ctx context.Context, query string, start time.Time, err error) {
	d := time.Since(start)
	kind := statementKind(query)
	if t.observer != nil {
		t.observer.ObserveQuery(kind, d)
	}

	log := logger.FromContext(ctx)
	ms := float64(d.Microseconds()) / 1000.0
	switch {
	case d >= t.threshold:
		log.Warn("slow_query", "kind", kind, "duration_ms", ms, "statement", compactStatement(query))
	case err != nil && err != sql.ErrNoRows:
		log.Debug("query_failed", "kind", kind, "duration_ms", ms, "error", err)
	default:
		log.Debug("query", "kind", kind, "duration_ms", ms)
	}
}

// ExecContext runs a statement that returns no rows.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.observe(ctx, query, start, err)
	return res, err
}

// QueryContext runs a query. Only the time to the first row is measured.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe(ctx, query, start, err)
	return rows, err
}

// QueryRowContext runs a single-row query. Errors surface on Scan.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe(ctx, query, start, row.Err())
	return row
}

// BeginTx starts a transaction. Statements run on the returned *sql.Tx are not timed.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.observe(ctx, "BEGIN", start, err)
	return tx, err
}

// PingContext checks the connection without timing it.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the wrapped pool.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
