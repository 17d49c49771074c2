package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/halo"
	dmhcl "github.com/vk/dmsweep/internal/hcl"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/observability"
	"github.com/vk/dmsweep/internal/plot"
	"github.com/vk/dmsweep/internal/quenching"
	"github.com/vk/dmsweep/internal/registry"
	"github.com/vk/dmsweep/internal/sweep"
	"gopkg.in/yaml.v3"
)

// Version is reported in traces.
var Version = "dev"

// Run executes one sweep. The report is returned even when the sweep aborts
// part-way.
func (a *App) Run(ctx context.Context) (rep *sweep.Report, err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.startHealthCheckServer(ctx); err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, a.closeHealthCheckServer(ctx))
	}()

	tracer, shutdown, err := observability.NewTracer(ctx, observability.TraceConfig{
		ServiceName:    "dmsweep",
		ServiceVersion: Version,
		Endpoint:       a.config.OTLPEndpoint,
		Insecure:       a.config.OTLPInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if serr := shutdown(context.WithoutCancel(ctx)); serr != nil {
			a.logger.Warn("Trace exporter shutdown failed.", "error", serr)
		}
	}()

	runID := uuid.NewString()
	env := registry.Env{
		BaseDir: baseDir(a.doc.Files),
		HaloDep: a.doc.Sweep.HaloDep,
		RunID:   runID,
		Out:     a.outW,
	}

	haloMod, err := a.buildHalo(ctx, env)
	if err != nil {
		return nil, err
	}
	sweepCfg, err := config.New(ctx, a.doc.Sweep, haloMod)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep: %w", err)
	}

	engine, err := a.buildEngine(ctx, env)
	if err != nil {
		return nil, err
	}
	defer closeIfCloser(ctx, "engine", engine)

	plotter, err := a.buildPlotter(ctx, env)
	if err != nil {
		return nil, err
	}
	defer closeIfCloser(ctx, "plotter", plotter)

	ldg, err := a.buildLedger(ctx, env)
	if err != nil {
		return nil, err
	}
	defer closeIfCloser(ctx, "ledger", ldg)

	eng, err := sweep.New(sweep.Deps{
		Config:   sweepCfg,
		Halo:     haloMod,
		Compute:  engine,
		Plotter:  plotter,
		Resolver: quenching.NewResolver(a.doc.Quenching),
		Ledger:   ldg,
		Metrics:  a.metrics,
		Tracer:   tracer,
		RunID:    runID,
	})
	if err != nil {
		return nil, err
	}

	rep, err = eng.Run(ctx, a.runOptions())
	if werr := a.writeReport(ctx, rep); werr != nil {
		err = errors.Join(err, werr)
	}

	a.logger.Debug("App.Run method finished.")
	return rep, err
}

// runOptions merges the command-line plot overrides over the sweep file.
func (a *App) runOptions() sweep.RunOptions {
	opts := sweep.RunOptions{
		ExportPlot: a.doc.Plot.Export || a.config.ExportPlot,
		XLim:       a.doc.Plot.XLim,
		YLim:       a.doc.Plot.YLim,
	}
	if a.config.XLim != nil {
		opts.XLim = a.config.XLim
	}
	if a.config.YLim != nil {
		opts.YLim = a.config.YLim
	}
	return opts
}

func (a *App) buildHalo(ctx context.Context, env registry.Env) (halo.Module, error) {
	name := backendName(a.doc.Halo, defaultHalo)
	f, err := a.registry.Halo(name)
	if err != nil {
		return nil, err
	}
	input := f.NewInput()
	if err := dmhcl.DecodeBackend(ctx, string(registry.KindHalo), a.doc.Halo, input); err != nil {
		return nil, err
	}
	m, err := f.Create(ctx, env, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create halo module %q (%s): %w", name, halo.ID(env.HaloDep), err)
	}
	return m, nil
}

func (a *App) buildEngine(ctx context.Context, env registry.Env) (compute.Engine, error) {
	name := backendName(a.doc.Engine, defaultEngine)
	f, err := a.registry.Engine(name)
	if err != nil {
		return nil, err
	}
	input := f.NewInput()
	if err := dmhcl.DecodeBackend(ctx, string(registry.KindEngine), a.doc.Engine, input); err != nil {
		return nil, err
	}
	e, err := f.Create(ctx, env, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine %q: %w", name, err)
	}
	return e, nil
}

// buildPlotter returns nil when the sweep file selects no plot backend.
func (a *App) buildPlotter(ctx context.Context, env registry.Env) (plot.Plotter, error) {
	if a.doc.Plotter == nil {
		return nil, nil
	}
	name := a.doc.Plotter.Type
	f, err := a.registry.Plotter(name)
	if err != nil {
		return nil, err
	}
	input := f.NewInput()
	if err := dmhcl.DecodeBackend(ctx, string(registry.KindPlotter), a.doc.Plotter, input); err != nil {
		return nil, err
	}
	p, err := f.Create(ctx, env, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create plotter %q: %w", name, err)
	}
	return p, nil
}

func (a *App) buildLedger(ctx context.Context, env registry.Env) (ledger.Ledger, error) {
	name := backendName(a.doc.Ledger, defaultLedger)
	f, err := a.registry.Ledger(name)
	if err != nil {
		return nil, err
	}
	input := f.NewInput()
	if err := dmhcl.DecodeBackend(ctx, string(registry.KindLedger), a.doc.Ledger, input); err != nil {
		return nil, err
	}
	l, err := f.Create(ctx, env, input)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %q: %w", name, err)
	}
	return l, nil
}

func (a *App) writeReport(ctx context.Context, rep *sweep.Report) error {
	if rep == nil || a.config.ReportPath == "" {
		return nil
	}
	body, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}
	if err := os.WriteFile(a.config.ReportPath, body, 0o644); err != nil {
		return fmt.Errorf("failed to write run report %s: %w", a.config.ReportPath, err)
	}
	ctxlog.FromContext(ctx).Info("Run report written.", "path", a.config.ReportPath)
	return nil
}

func closeIfCloser(ctx context.Context, what string, v any) {
	c, ok := v.(io.Closer)
	if !ok || c == nil {
		return
	}
	if err := c.Close(); err != nil {
		ctxlog.FromContext(ctx).Warn("Close failed.", "component", what, "error", err)
	}
}

// baseDir is the directory relative backend paths resolve against: the
// directory of the first sweep file.
func baseDir(files []string) string {
	if len(files) == 0 {
		return ""
	}
	return filepath.Dir(files[0])
}
