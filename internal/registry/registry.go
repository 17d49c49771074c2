package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/halo"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/plot"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Kind names a collaborator slot a backend fills.
type Kind string

const (
	KindEngine  Kind = "engine"
	KindPlotter Kind = "plot"
	KindHalo    Kind = "halo"
	KindLedger  Kind = "ledger"
)

// Env carries the process-level facts a factory may need beyond its input.
type Env struct {
	// BaseDir is the directory of the first sweep file; relative paths in
	// backend blocks resolve against it.
	BaseDir string
	// HaloDep selects which halo analysis a halo module serves.
	HaloDep bool
	// RunID identifies the sweep run being assembled.
	RunID string
	// Out is the application's output stream.
	Out io.Writer
}

// Resolve joins a backend-relative path onto the base directory.
func (e Env) Resolve(path string) string {
	if path == "" || e.BaseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.BaseDir, path)
}

// RegisteredEngine holds the compiled Go parts of a computation engine backend.
type RegisteredEngine struct {
	NewInput func() any
	Create   func(ctx context.Context, env Env, input any) (compute.Engine, error)
}

// RegisteredPlotter holds the compiled Go parts of a plotting backend.
type RegisteredPlotter struct {
	NewInput func() any
	Create   func(ctx context.Context, env Env, input any) (plot.Plotter, error)
}

// RegisteredHalo holds the compiled Go parts of a halo-analysis backend.
type RegisteredHalo struct {
	NewInput func() any
	Create   func(ctx context.Context, env Env, input any) (halo.Module, error)
}

// RegisteredLedger holds the compiled Go parts of an invocation ledger backend.
type RegisteredLedger struct {
	NewInput func() any
	Create   func(ctx context.Context, env Env, input any) (ledger.Ledger, error)
}

// Registry holds all the registered backend factories for a single
// application instance.
type Registry struct {
	engines  map[string]*RegisteredEngine
	plotters map[string]*RegisteredPlotter
	halos    map[string]*RegisteredHalo
	ledgers  map[string]*RegisteredLedger
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		engines:  make(map[string]*RegisteredEngine),
		plotters: make(map[string]*RegisteredPlotter),
		halos:    make(map[string]*RegisteredHalo),
		ledgers:  make(map[string]*RegisteredLedger),
	}
}

// RegisterEngine registers a computation engine factory.
func (r *Registry) RegisterEngine(name string, f *RegisteredEngine) {
	register(r.engines, KindEngine, name, f)
}

// RegisterPlotter registers a plotting backend factory.
func (r *Registry) RegisterPlotter(name string, f *RegisteredPlotter) {
	register(r.plotters, KindPlotter, name, f)
}

// RegisterHalo registers a halo-analysis backend factory.
func (r *Registry) RegisterHalo(name string, f *RegisteredHalo) {
	register(r.halos, KindHalo, name, f)
}

// RegisterLedger registers an invocation ledger factory.
func (r *Registry) RegisterLedger(name string, f *RegisteredLedger) {
	register(r.ledgers, KindLedger, name, f)
}

func register[T any](m map[string]*T, kind Kind, name string, f *T) {
	if _, exists := m[name]; exists {
		panic(fmt.Sprintf("%s backend with name '%s' already registered", kind, name))
	}
	if f == nil {
		panic(fmt.Sprintf("%s backend '%s' registered without a factory", kind, name))
	}
	slog.Debug("Registering backend.", "kind", kind, "name", name)
	m[name] = f
}

// Engine looks up an engine factory by name.
func (r *Registry) Engine(name string) (*RegisteredEngine, error) {
	return lookup(r.engines, KindEngine, name)
}

// Plotter looks up a plotting backend factory by name.
func (r *Registry) Plotter(name string) (*RegisteredPlotter, error) {
	return lookup(r.plotters, KindPlotter, name)
}

// Halo looks up a halo-analysis backend factory by name.
func (r *Registry) Halo(name string) (*RegisteredHalo, error) {
	return lookup(r.halos, KindHalo, name)
}

// Ledger looks up a ledger factory by name.
func (r *Registry) Ledger(name string) (*RegisteredLedger, error) {
	return lookup(r.ledgers, KindLedger, name)
}

func lookup[T any](m map[string]*T, kind Kind, name string) (*T, error) {
	if f, ok := m[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: unknown %s backend %q (available: %s)",
		config.ErrConfig, kind, name, strings.Join(names(m), ", "))
}

// Names lists the registered backend names of a kind in sorted order.
func (r *Registry) Names(kind Kind) []string {
	switch kind {
	case KindEngine:
		return names(r.engines)
	case KindPlotter:
		return names(r.plotters)
	case KindHalo:
		return names(r.halos)
	case KindLedger:
		return names(r.ledgers)
	}
	return nil
}

func names[T any](m map[string]*T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
