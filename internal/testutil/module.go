package testutil

import (
	"context"

	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/halo"
	"github.com/vk/dmsweep/internal/inmemoryledger"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/plot"
	"github.com/vk/dmsweep/internal/registry"
)

// FakeName is the backend name every fake collaborator registers under.
const FakeName = "fake"

// FakeModule registers the fakes of this package as backends: engine, plot
// and halo "fake", plus the "memory" ledger so sweep files need no ledger
// block. Nil fields are filled in on registration.
type FakeModule struct {
	Halo    *FakeHalo
	Engine  *RecordingEngine
	Plotter *RecordingPlotter
	Ledger  *inmemoryledger.Ledger

	// Envs records the environment every factory was called with.
	Envs []registry.Env
}

// Register implements the registry.Module interface.
func (m *FakeModule) Register(r *registry.Registry) {
	if m.Halo == nil {
		m.Halo = &FakeHalo{}
	}
	if m.Engine == nil {
		m.Engine = &RecordingEngine{}
	}
	if m.Plotter == nil {
		m.Plotter = &RecordingPlotter{}
	}
	if m.Ledger == nil {
		m.Ledger = inmemoryledger.New()
	}

	newInput := func() any { return new(struct{}) }
	r.RegisterHalo(FakeName, &registry.RegisteredHalo{
		NewInput: newInput,
		Create: func(_ context.Context, env registry.Env, _ any) (halo.Module, error) {
			m.Envs = append(m.Envs, env)
			return m.Halo, nil
		},
	})
	r.RegisterEngine(FakeName, &registry.RegisteredEngine{
		NewInput: newInput,
		Create: func(_ context.Context, env registry.Env, _ any) (compute.Engine, error) {
			m.Envs = append(m.Envs, env)
			return m.Engine, nil
		},
	})
	r.RegisterPlotter(FakeName, &registry.RegisteredPlotter{
		NewInput: newInput,
		Create: func(_ context.Context, env registry.Env, _ any) (plot.Plotter, error) {
			m.Envs = append(m.Envs, env)
			return m.Plotter, nil
		},
	})
	r.RegisterLedger("memory", &registry.RegisteredLedger{
		NewInput: newInput,
		Create: func(_ context.Context, env registry.Env, _ any) (ledger.Ledger, error) {
			m.Envs = append(m.Envs, env)
			return m.Ledger, nil
		},
	})
}
