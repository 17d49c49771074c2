package command

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/registry"
	"gopkg.in/yaml.v3"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func shellEngine(t *testing.T, script string, env map[string]string) *Engine {
	t.Helper()
	e, err := NewEngine(&Input{Command: "sh", Args: []string{"-c", script}, Env: env}, registry.Env{RunID: "run-1"})
	require.NoError(t, err)
	return e
}

func TestEngine_WritesSnapshotToStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "snap.yaml")
	e := shellEngine(t, `cat > "$OUT"; echo "$0 $DMSWEEP_ENTRY $DMSWEEP_RUN_ID" >> "$OUT.meta"`, map[string]string{"OUT": out})

	mx := 9.0
	snap := config.Snapshot{ExperName: "CDMSSi2012", ScatteringType: "SI", Mx: &mx, Fn: 1, Fp: 1}
	require.NoError(t, e.Run(testContext(), snap))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	require.Equal(t, "CDMSSi2012", decoded["exper_name"])
	require.Equal(t, 9.0, decoded["mx"])

	meta, err := os.ReadFile(out + ".meta")
	require.NoError(t, err)
	require.Equal(t, "run run run-1\n", string(meta))
}

func TestEngine_MultiExperimentEntry(t *testing.T) {
	out := filepath.Join(t.TempDir(), "entry")
	e := shellEngine(t, `cat > /dev/null; echo "$DMSWEEP_ENTRY" > "$OUT"`, map[string]string{"OUT": out})
	require.NoError(t, e.RunMultiExperiment(testContext(), config.Snapshot{}))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "run_multiexperiment\n", string(raw))
}

func TestEngine_ExitCodes(t *testing.T) {
	t.Run("missing artifact", func(t *testing.T) {
		e := shellEngine(t, `echo "no such table" >&2; exit 66`, nil)
		err := e.Run(testContext(), config.Snapshot{})
		require.ErrorIs(t, err, compute.ErrMissingArtifact)
		require.Contains(t, err.Error(), "no such table")
	})

	t.Run("custom missing artifact code", func(t *testing.T) {
		code := 9
		e, err := NewEngine(&Input{Command: "sh", Args: []string{"-c", "exit 9"}, MissingArtifactExitCode: &code}, registry.Env{})
		require.NoError(t, err)
		require.ErrorIs(t, e.Run(testContext(), config.Snapshot{}), compute.ErrMissingArtifact)
	})

	t.Run("other failure", func(t *testing.T) {
		e := shellEngine(t, `echo "boom" >&2; exit 3`, nil)
		err := e.Run(testContext(), config.Snapshot{})
		require.Error(t, err)
		require.NotErrorIs(t, err, compute.ErrMissingArtifact)
		require.Contains(t, err.Error(), "exited with status 3: boom")
	})

}

func TestNewEngine_UnrunnableCommandIsConfigError(t *testing.T) {
	testCases := []struct {
		name  string
		input *Input
	}{
		{name: "missing binary", input: &Input{Command: filepath.Join(t.TempDir(), "does-not-exist")}},
		{name: "missing binary on PATH", input: &Input{Command: "dmsweep-no-such-engine-binary"}},
		{name: "missing dir", input: &Input{Command: "sh", Dir: filepath.Join(t.TempDir(), "no", "such", "dir")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine(tc.input, registry.Env{})
			require.ErrorIs(t, err, config.ErrConfig)
		})
	}
}

func TestEngine_StartFailureIsNotMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEngine(&Input{Command: "sh", Dir: dir}, registry.Env{})
	require.NoError(t, err)
	// The directory disappears after validation.
	require.NoError(t, os.Remove(dir))

	err = e.Run(testContext(), config.Snapshot{})
	require.Error(t, err)
	require.NotErrorIs(t, err, fs.ErrNotExist)
	require.NotErrorIs(t, err, compute.ErrMissingArtifact)
}

func TestEngine_Timeout(t *testing.T) {
	e, err := NewEngine(&Input{Command: "sh", Args: []string{"-c", "exec sleep 5"}, Timeout: "50ms"}, registry.Env{})
	require.NoError(t, err)
	err = e.Run(testContext(), config.Snapshot{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(&Input{}, registry.Env{})
	require.ErrorIs(t, err, config.ErrConfig)

	_, err = NewEngine(&Input{Command: "sh", Timeout: "soon"}, registry.Env{})
	require.ErrorIs(t, err, config.ErrConfig)

	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "work"), 0o755))
	e, err := NewEngine(&Input{Command: "sh", Dir: "work"}, registry.Env{BaseDir: base})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "work"), e.dir)
}
