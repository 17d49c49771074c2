package ledgers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/registry"
)

func TestModule_Backends(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)
	require.Equal(t, []string{"memory", "sqlite"}, r.Names(registry.KindLedger))

	dir := t.TempDir()
	for _, name := range []string{"memory", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f, err := r.Ledger(name)
			require.NoError(t, err)

			input := f.NewInput()
			if in, ok := input.(*SQLiteInput); ok {
				in.Path = "ledger.db"
			}
			l, err := f.Create(ctx, registry.Env{BaseDir: dir}, input)
			require.NoError(t, err)
			t.Cleanup(func() { _ = l.Close() })

			e := ledger.Entry{RunID: "r", Seq: 1, EntryPoint: ledger.EntrySingle, Status: ledger.StatusOK, RecordedAt: time.Now().UTC()}
			require.NoError(t, l.Record(ctx, e))
			got, err := l.Entries(ctx, "r")
			require.NoError(t, err)
			require.Len(t, got, 1)
		})
	}
	require.FileExists(t, filepath.Join(dir, "ledger.db"))
}
