package inmemoryledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dmsweep/internal/ledger"
)

func TestRecordAndEntries(t *testing.T) {
	l := New()
	ctx := context.Background()

	// Unknown run has no entries.
	entries, err := l.Entries(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, l.Record(ctx, ledger.Entry{RunID: "r1", Seq: 2, ExperName: "B", Status: ledger.StatusSkipped}))
	require.NoError(t, l.Record(ctx, ledger.Entry{RunID: "r1", Seq: 1, ExperName: "A", Status: ledger.StatusOK}))
	require.NoError(t, l.Record(ctx, ledger.Entry{RunID: "r2", Seq: 1, ExperName: "C"}))

	entries, err = l.Entries(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].ExperName)
	assert.Equal(t, ledger.StatusSkipped, entries[1].Status)
}

func TestRecord_CopiesSnapshot(t *testing.T) {
	l := New()
	ctx := context.Background()
	snap := []byte("exper_name: A\n")
	require.NoError(t, l.Record(ctx, ledger.Entry{RunID: "r", Snapshot: snap}))
	snap[0] = 'X'

	entries, err := l.Entries(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "exper_name: A\n", string(entries[0].Snapshot))
}

// TestLedger_ConcurrentAccess verifies that concurrent writers lose no
// entries.
func TestLedger_ConcurrentAccess(t *testing.T) {
	l := New()
	ctx := context.Background()
	numGoroutines := 100
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Record(ctx, ledger.Entry{RunID: "r", Seq: i, ExperName: fmt.Sprint(i)}))
		}(i)
	}
	wg.Wait()

	entries, err := l.Entries(ctx, "r")
	require.NoError(t, err)
	require.Len(t, entries, numGoroutines)
	for i, e := range entries {
		assert.Equal(t, i, e.Seq)
	}
}
