package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertExperimentOrder checks the experiment names of the single-experiment
// snapshots an engine received, in call order.
func AssertExperimentOrder(t *testing.T, e *RecordingEngine, want ...string) {
	t.Helper()

	snaps := e.Snapshots()
	got := make([]string, len(snaps))
	for i, s := range snaps {
		got[i] = s.ExperName
	}
	require.Equal(t, want, got, "unexpected experiment call order")
}

// AssertLogged checks that the captured log output of a run contains every
// given fragment.
func AssertLogged(t *testing.T, result *HarnessResult, fragments ...string) {
	t.Helper()

	for _, f := range fragments {
		require.Contains(t, result.LogOutput, f, "expected log fragment %q was not found", f)
	}
}
