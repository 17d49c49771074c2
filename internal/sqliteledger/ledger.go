// Package sqliteledger stores the invocation ledger in a SQLite database so
// a finished sweep can be audited or compared against a later one.
package sqliteledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vk/dmsweep/internal/ledger"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Ledger implements ledger.Ledger on top of database/sql.
type Ledger struct {
	db *sql.DB
}

// Open opens (and if needed creates) the ledger database at path. An empty
// path opens a private in-memory database.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) init(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS invocations (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			entry_point TEXT NOT NULL,
			exper_name TEXT NOT NULL,
			scattering_type TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			snapshot BLOB,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create invocations table: %w", err)
	}
	return nil
}

// Record inserts one entry. Recording the same (run, seq) twice is an error.
func (l *Ledger) Record(ctx context.Context, e ledger.Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO invocations (run_id, seq, entry_point, exper_name, scattering_type, status, error, snapshot, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.RunID, e.Seq, e.EntryPoint, e.ExperName, e.ScatteringType,
		string(e.Status), nullString(e.Error), e.Snapshot, e.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record invocation %s/%d: %w", e.RunID, e.Seq, err)
	}
	return nil
}

// Entries returns the run's entries ordered by sequence number.
func (l *Ledger) Entries(ctx context.Context, runID string) ([]ledger.Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, seq, entry_point, exper_name, scattering_type, status, error, snapshot, recorded_at
		FROM invocations WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var (
			e      ledger.Entry
			status string
			errStr sql.NullString
			at     string
		)
		if err := rows.Scan(&e.RunID, &e.Seq, &e.EntryPoint, &e.ExperName, &e.ScatteringType,
			&status, &errStr, &e.Snapshot, &at); err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		if e.RecordedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("invocation %s/%d has bad timestamp %q: %w", e.RunID, e.Seq, at, err)
		}
		e.Status = ledger.Status(status)
		e.Error = errStr.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read invocations: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
