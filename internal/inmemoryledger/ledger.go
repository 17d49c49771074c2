package inmemoryledger

import (
	"context"
	"sort"
	"sync"

	"github.com/vk/dmsweep/internal/ledger"
)

// Ledger keeps entries in a map keyed by run id.
type Ledger struct {
	mu   sync.RWMutex
	runs map[string][]ledger.Entry
}

// New creates an empty in-memory ledger.
func New() *Ledger {
	return &Ledger{runs: make(map[string][]ledger.Entry)}
}

// Record appends an entry to its run.
func (l *Ledger) Record(ctx context.Context, e ledger.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.Snapshot = append([]byte(nil), e.Snapshot...)
	l.runs[e.RunID] = append(l.runs[e.RunID], e)
	return nil
}

// Entries returns a copy of the run's entries ordered by sequence number.
// An unknown run has no entries.
func (l *Ledger) Entries(ctx context.Context, runID string) ([]ledger.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := append([]ledger.Entry(nil), l.runs[runID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Close is a no-op.
func (l *Ledger) Close() error { return nil }
