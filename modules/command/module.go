// Package command provides a computation engine that runs an external
// program once per invocation, writing the YAML snapshot to its stdin.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/registry"
	"gopkg.in/yaml.v3"
)

// DefaultMissingArtifactExitCode is the exit status (EX_NOINPUT) a program
// uses to report that precomputed input data is missing.
const DefaultMissingArtifactExitCode = 66

// Entry point names passed to the program as its last argument and in
// DMSWEEP_ENTRY.
const (
	EntryRun                = "run"
	EntryRunMultiExperiment = "run_multiexperiment"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of an `engine "command" { ... }` block.
type Input struct {
	Command                 string            `hcl:"command"`
	Args                    []string          `hcl:"args,optional"`
	Dir                     string            `hcl:"dir,optional"`
	Env                     map[string]string `hcl:"env,optional"`
	Timeout                 string            `hcl:"timeout,optional"`
	MissingArtifactExitCode *int              `hcl:"missing_artifact_exit_code,optional"`
}

// Engine runs an external program per computation.
type Engine struct {
	command     string
	args        []string
	dir         string
	env         []string
	timeout     time.Duration
	missingCode int
	runID       string
}

var _ compute.Engine = (*Engine)(nil)

// NewEngine validates the input and builds an engine.
func NewEngine(input *Input, env registry.Env) (*Engine, error) {
	if strings.TrimSpace(input.Command) == "" {
		return nil, fmt.Errorf("%w: command engine needs a command", config.ErrConfig)
	}
	e := &Engine{
		command:     input.Command,
		args:        append([]string(nil), input.Args...),
		dir:         env.Resolve(input.Dir),
		missingCode: DefaultMissingArtifactExitCode,
		runID:       env.RunID,
	}
	if e.dir != "" {
		info, err := os.Stat(e.dir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: command engine dir %q is not a directory", config.ErrConfig, e.dir)
		}
	}
	bin := e.command
	if strings.ContainsRune(bin, filepath.Separator) && !filepath.IsAbs(bin) && e.dir != "" {
		bin = filepath.Join(e.dir, bin)
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: command engine cannot run %q: %v", config.ErrConfig, input.Command, err)
	}
	if input.MissingArtifactExitCode != nil {
		e.missingCode = *input.MissingArtifactExitCode
	}
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: invalid command timeout %q", config.ErrConfig, input.Timeout)
		}
		e.timeout = d
	}

	keys := make([]string, 0, len(input.Env))
	for k := range input.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.env = append(e.env, k+"="+input.Env[k])
	}
	return e, nil
}

// Run executes the program for one experiment.
func (e *Engine) Run(ctx context.Context, snap config.Snapshot) error {
	return e.exec(ctx, EntryRun, snap)
}

// RunMultiExperiment executes the program for the aggregate pass.
func (e *Engine) RunMultiExperiment(ctx context.Context, snap config.Snapshot) error {
	return e.exec(ctx, EntryRunMultiExperiment, snap)
}

func (e *Engine) exec(ctx context.Context, entry string, snap config.Snapshot) error {
	logger := ctxlog.FromContext(ctx).With("engine", "command", "entry", entry, "experiment", snap.ExperName)

	stdin, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	args := append(append([]string(nil), e.args...), entry)
	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Dir = e.dir
	cmd.Env = append(os.Environ(), e.env...)
	cmd.Env = append(cmd.Env, "DMSWEEP_ENTRY="+entry, "DMSWEEP_RUN_ID="+e.runID)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Starting command.", "command", e.command, "args", args)
	start := time.Now()
	err = cmd.Run()
	logger.Debug("Command finished.", "duration", time.Since(start), "stdout_bytes", stdout.Len(), "stderr", tail(stderr.String()))

	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("command %s interrupted: %w", e.command, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == e.missingCode {
			return fmt.Errorf("%w: %s", compute.ErrMissingArtifact, tail(stderr.String()))
		}
		return fmt.Errorf("command %s exited with status %d: %s", e.command, exitErr.ExitCode(), tail(stderr.String()))
	}
	// Start failures must not unwrap to fs.ErrNotExist, which would read as a
	// missing artifact.
	return fmt.Errorf("failed to execute command %s: %v", e.command, err)
}

// tail keeps the last few lines of program output for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}

// Register registers the engine factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngine("command", &registry.RegisteredEngine{
		NewInput: func() any { return new(Input) },
		Create: func(ctx context.Context, env registry.Env, input any) (compute.Engine, error) {
			return NewEngine(input.(*Input), env)
		},
	})
}
