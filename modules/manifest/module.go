// Package manifest provides a plotting backend that renders nothing and
// instead records a YAML descriptor for every exported plot. A downstream
// renderer turns the descriptors into figures.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/plot"
	"github.com/vk/dmsweep/internal/registry"
	"gopkg.in/yaml.v3"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a `plot "manifest" { ... }` block.
type Input struct {
	// Path of the manifest file, relative to the sweep file.
	Path string `hcl:"path,optional"`
	// Extension of the plot files the renderer will produce.
	Extension string `hcl:"extension,optional"`
}

// Descriptor describes one exported plot.
type Descriptor struct {
	File   string         `yaml:"file"`
	Legend *plot.Legend   `yaml:"legend,omitempty"`
	XLim   *config.Limits `yaml:"xlim,omitempty"`
	YLim   *config.Limits `yaml:"ylim,omitempty"`
}

// Manifest is the document written to disk.
type Manifest struct {
	RunID string       `yaml:"run_id"`
	Plots []Descriptor `yaml:"plots"`
}

// Plotter accumulates the current plot state and appends a descriptor on
// each Save.
type Plotter struct {
	path    string
	ext     string
	current Descriptor
	doc     Manifest
}

var _ plot.Plotter = (*Plotter)(nil)

// NewPlotter creates a manifest plotter writing to path.
func NewPlotter(path, ext, runID string) *Plotter {
	if path == "" {
		path = "plots.yaml"
	}
	if ext == "" {
		ext = ".pdf"
	}
	return &Plotter{path: path, ext: ext, doc: Manifest{RunID: runID, Plots: []Descriptor{}}}
}

// Legend records the legend of the current plot.
func (p *Plotter) Legend(_ context.Context, l plot.Legend) error {
	p.current.Legend = &l
	return nil
}

// Limits records the axis limits of the current plot.
func (p *Plotter) Limits(_ context.Context, x, y *config.Limits) error {
	if x != nil {
		p.current.XLim = x
	}
	if y != nil {
		p.current.YLim = y
	}
	return nil
}

// Save appends the current plot as a descriptor and rewrites the manifest.
func (p *Plotter) Save(ctx context.Context, path string) error {
	d := p.current
	d.File = path
	p.doc.Plots = append(p.doc.Plots, d)

	body, err := yaml.Marshal(p.doc)
	if err != nil {
		return fmt.Errorf("failed to encode plot manifest: %w", err)
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(p.path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write plot manifest %s: %w", p.path, err)
	}
	ctxlog.FromContext(ctx).Debug("Plot descriptor recorded.", "file", path, "manifest", p.path, "count", len(p.doc.Plots))
	return nil
}

// Reset clears the current plot state.
func (p *Plotter) Reset(context.Context) error {
	p.current = Descriptor{}
	return nil
}

// Extension returns the configured plot file extension.
func (p *Plotter) Extension() string { return p.ext }

// Register registers the plotter factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlotter("manifest", &registry.RegisteredPlotter{
		NewInput: func() any { return new(Input) },
		Create: func(ctx context.Context, env registry.Env, input any) (plot.Plotter, error) {
			in := input.(*Input)
			return NewPlotter(env.Resolve(in.Path), in.Extension, env.RunID), nil
		},
	})
}
