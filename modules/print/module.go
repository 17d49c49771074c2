// Package print provides a dry-run computation engine that prints every
// snapshot it receives instead of computing anything.
package print

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/registry"
	"gopkg.in/yaml.v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of an `engine "print"` block.
type Input struct {
	// Format is "yaml" (default) or "json".
	Format string `hcl:"format,optional"`
}

// Engine writes snapshots to an output stream.
type Engine struct {
	mu     sync.Mutex
	out    io.Writer
	format string
}

// NewEngine creates a print engine writing to out in the given format.
func NewEngine(out io.Writer, format string) (*Engine, error) {
	switch format {
	case "":
		format = "yaml"
	case "yaml", "json":
	default:
		return nil, fmt.Errorf("%w: print engine format must be yaml or json, got %q", config.ErrConfig, format)
	}
	if out == nil {
		out = os.Stdout
	}
	return &Engine{out: out, format: format}, nil
}

var _ compute.Engine = (*Engine)(nil)

// Run prints a single-experiment snapshot.
func (e *Engine) Run(ctx context.Context, snap config.Snapshot) error {
	return e.print(ctx, "run", snap)
}

// RunMultiExperiment prints a multi-experiment snapshot.
func (e *Engine) RunMultiExperiment(ctx context.Context, snap config.Snapshot) error {
	return e.print(ctx, "run_multiexperiment", snap)
}

func (e *Engine) print(ctx context.Context, entry string, snap config.Snapshot) error {
	ctxlog.FromContext(ctx).Info("Printing snapshot", "entry", entry, "experiment", snap.ExperName)

	var body []byte
	var err error
	if e.format == "json" {
		body, err = json.Marshal(map[string]any{"entry": entry, "snapshot": snap})
		body = append(body, '\n')
	} else {
		body, err = yaml.Marshal(map[string]any{"entry": entry, "snapshot": snap})
		body = append([]byte("---\n"), body...)
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.out.Write(body); err != nil {
		return fmt.Errorf("failed to print snapshot: %w", err)
	}
	return nil
}

// Register registers the engine factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngine("print", &registry.RegisteredEngine{
		NewInput: func() any { return new(Input) },
		Create: func(ctx context.Context, env registry.Env, input any) (compute.Engine, error) {
			return NewEngine(env.Out, input.(*Input).Format)
		},
	})
}
