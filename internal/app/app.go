package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/observability"
	"github.com/vk/dmsweep/internal/registry"
)

// Default backends used when a sweep file does not select one.
const (
	defaultEngine = "print"
	defaultHalo   = "table"
	defaultLedger = "memory"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	registry   *registry.Registry
	doc        *config.Document
	config     *Config
	metrics    *observability.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the sweep
// file, registers the modules (coreModules when none are given) and checks
// that every backend the file selects is provided by a module.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	doc, err := loader.Load(ctx, appConfig.SweepPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "files", doc.Files)

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	a := &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		registry: reg,
		doc:      doc,
		config:   appConfig,
		metrics:  observability.NewMetrics(),
	}
	if err := a.validateBackends(); err != nil {
		return nil, err
	}
	logger.Debug("Backend selection validated.")
	return a, nil
}

// validateBackends fails fast when the sweep file names a backend that no
// registered module provides.
func (a *App) validateBackends() error {
	if _, err := a.registry.Engine(backendName(a.doc.Engine, defaultEngine)); err != nil {
		return err
	}
	if _, err := a.registry.Halo(backendName(a.doc.Halo, defaultHalo)); err != nil {
		return err
	}
	if _, err := a.registry.Ledger(backendName(a.doc.Ledger, defaultLedger)); err != nil {
		return err
	}
	if a.doc.Plotter != nil {
		if _, err := a.registry.Plotter(a.doc.Plotter.Type); err != nil {
			return err
		}
	}
	return nil
}

func backendName(b *config.Backend, def string) string {
	if b == nil {
		return def
	}
	return b.Type
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Document returns the loaded sweep document.
func (a *App) Document() *config.Document {
	return a.doc
}

// Metrics returns the application's metric collectors.
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}
