package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/dmsweep/internal/app"
	dmhcl "github.com/vk/dmsweep/internal/hcl"
	"github.com/vk/dmsweep/internal/registry"
	"github.com/vk/dmsweep/internal/sweep"
)

// SweepDir is the directory, relative to the harness root, that is passed
// to the app as the sweep path. Files outside it (e.g. halo tables under
// "data/") are only reachable through backend paths such as "../data".
const SweepDir = "sweep"

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Report    *sweep.Report
	Root      string
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithConfig(context.Background(), t, files, nil, modules...)
}

// RunIntegrationTestWithConfig writes files under a temporary root, builds
// the app with the given modules and runs one sweep. mutate, when non-nil,
// adjusts the app configuration before construction.
func RunIntegrationTestWithConfig(ctx context.Context, t *testing.T, files map[string]string, mutate func(*app.Config), modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Create a temporary root directory and write all files below it.
	//    Relative names (e.g., "sweep/main.hcl") create subdirectories.
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, SweepDir), 0o755))
	for name, content := range files {
		filePath := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	appConfig := &app.Config{
		SweepPath: filepath.Join(root, SweepDir),
		LogLevel:  "debug",
		LogFormat: "text",
	}
	if mutate != nil {
		mutate(appConfig)
	}

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{Root: root}
	defer func() {
		result.LogOutput = logBuffer.String()
		if os.Getenv("DMSWEEP_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
		}
	}()

	// 2. Build the app; a construction error is a run error for the caller.
	testApp, err := app.NewApp(logBuffer, appConfig, dmhcl.NewLoader(), modules...)
	if err != nil {
		result.Err = err
		return result
	}
	result.App = testApp

	// 3. Run the sweep, converting collaborator panics into errors.
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("sweep panicked | %v", r)
			}
		}()
		result.Report, result.Err = testApp.Run(ctx)
	}()
	return result
}
