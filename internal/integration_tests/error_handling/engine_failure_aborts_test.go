package integration_tests

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/invoke"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/testutil"
)

const twoExperimentSweep = `
	sweep {
		experiments = ["Xenon100", "LUX2013", "PandaX"]
	}
	engine "fake" {}
	halo "fake" {}
`

// TestErrorHandling_EngineFailureAbortsRun validates that an unrecoverable
// engine error stops the sweep and is still recorded in the ledger.
func TestErrorHandling_EngineFailureAbortsRun(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	boom := errors.New("likelihood diverged")
	mod := &testutil.FakeModule{
		Halo:   &testutil.FakeHalo{Points: []config.ParameterPoint{{Mx: 9, Fn: 1}}},
		Engine: &testutil.RecordingEngine{Errs: map[string]error{"LUX2013": boom}},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, map[string]string{"sweep/main.hcl": twoExperimentSweep}, mod)

	// --- Assert ---
	require.ErrorIs(t, result.Err, boom)
	require.NotErrorIs(t, result.Err, config.ErrConfig)
	testutil.AssertExperimentOrder(t, mod.Engine, "Xenon100", "LUX2013")
	require.NotNil(t, result.Report, "the report covers the work done before the failure")
	require.Equal(t, 2, result.Report.Invocations)

	entries, err := mod.Ledger.Entries(context.Background(), result.Report.RunID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, ledger.StatusFailed, entries[1].Status)
	require.Contains(t, entries[1].Error, "likelihood diverged")
	testutil.AssertLogged(t, result, "Sweep aborted.")
}

// TestErrorHandling_MissingArtifactIsContained validates that a missing
// precomputed artifact skips only the affected call.
func TestErrorHandling_MissingArtifactIsContained(t *testing.T) {
	t.Parallel()

	mod := &testutil.FakeModule{
		Halo: &testutil.FakeHalo{Points: []config.ParameterPoint{{Mx: 9, Fn: 1}}},
		Engine: &testutil.RecordingEngine{Errs: map[string]error{
			"Xenon100": fmt.Errorf("%w: tables/Xenon100.dat", compute.ErrMissingArtifact),
			"PandaX":   &os.PathError{Op: "open", Path: "PandaX.dat", Err: os.ErrNotExist},
		}},
	}

	result := testutil.RunIntegrationTest(t, map[string]string{"sweep/main.hcl": twoExperimentSweep}, mod)

	require.NoError(t, result.Err)
	testutil.AssertExperimentOrder(t, mod.Engine, "Xenon100", "LUX2013", "PandaX")
	require.Equal(t, 1, result.Report.Calls)
	require.Len(t, result.Report.Skips, 2)
	for _, s := range result.Report.Skips {
		require.Equal(t, invoke.ReasonMissingArtifact, s.Reason)
	}

	entries, err := mod.Ledger.Entries(context.Background(), result.Report.RunID)
	require.NoError(t, err)
	statuses := make([]ledger.Status, len(entries))
	for i, e := range entries {
		statuses[i] = e.Status
	}
	require.Equal(t, []ledger.Status{ledger.StatusSkipped, ledger.StatusOK, ledger.StatusSkipped}, statuses)
}

// TestErrorHandling_CancelledContextStopsRun validates that a cancelled
// context aborts the sweep before the first call.
func TestErrorHandling_CancelledContextStopsRun(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mod := &testutil.FakeModule{Halo: &testutil.FakeHalo{Points: []config.ParameterPoint{{Mx: 9, Fn: 1}}}}

	result := testutil.RunIntegrationTestWithConfig(ctx, t, map[string]string{"sweep/main.hcl": twoExperimentSweep}, nil, mod)

	require.ErrorIs(t, result.Err, context.Canceled)
	require.Empty(t, mod.Engine.Order())
}
