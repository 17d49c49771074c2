// Package ledger defines the invocation ledger: an append-only record of
// every engine call made during a sweep, keyed by run id and sequence
// number.
package ledger

import (
	"context"
	"time"
)

// Status is the outcome of one engine call.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Entry point names.
const (
	EntrySingle = "single"
	EntryMulti  = "multi"
)

// Entry is one recorded engine call.
type Entry struct {
	RunID          string
	Seq            int
	EntryPoint     string
	ExperName      string
	ScatteringType string
	Status         Status
	Error          string
	// Snapshot is the YAML encoding of the snapshot passed to the engine.
	Snapshot   []byte
	RecordedAt time.Time
}

// Ledger stores entries. Implementations must be safe for concurrent use.
type Ledger interface {
	Record(ctx context.Context, e Entry) error
	// Entries returns the entries of one run ordered by Seq.
	Entries(ctx context.Context, runID string) ([]Entry, error)
	Close() error
}
