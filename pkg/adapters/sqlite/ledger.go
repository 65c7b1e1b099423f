// Package sqlite provides a SQLite-backed submission outcome ledger, so the
// submit step stays idempotent across process restarts on a single node.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS submission_outcomes (
	submission_key TEXT PRIMARY KEY,
	outcome        TEXT NOT NULL,
	recorded_at    INTEGER NOT NULL
)`

var _ ports.OutcomeLedger = (*Ledger)(nil)

// Ledger persists submission outcomes in SQLite.
type Ledger struct {
	sqlDB *sql.DB
}

// Open opens a SQLite ledger at path and creates its table.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Ledger{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (l *Ledger) Close() error {
	if l == nil || l.sqlDB == nil {
		return nil
	}
	return l.sqlDB.Close()
}

// Record stores the outcome of a submission key, replacing any previous one.
func (l *Ledger) Record(ctx context.Context, key string, outcome domain.SubmissionOutcome) error {
	_, err := l.sqlDB.ExecContext(ctx,
		`INSERT INTO submission_outcomes (submission_key, outcome, recorded_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(submission_key) DO UPDATE SET outcome = excluded.outcome, recorded_at = excluded.recorded_at`,
		key, string(outcome), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Lookup returns the recorded outcome of a submission key.
func (l *Ledger) Lookup(ctx context.Context, key string) (domain.SubmissionOutcome, bool, error) {
	var outcome string
	err := l.sqlDB.QueryRowContext(ctx,
		`SELECT outcome FROM submission_outcomes WHERE submission_key = ?`, key,
	).Scan(&outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup outcome: %w", err)
	}
	return domain.SubmissionOutcome(outcome), true, nil
}
