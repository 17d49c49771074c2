package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/halo"
	"github.com/vk/dmsweep/internal/invoke"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/observability"
	"github.com/vk/dmsweep/internal/plot"
	"github.com/vk/dmsweep/internal/quenching"
	"go.opentelemetry.io/otel/attribute"
)

// Deps are the collaborators of an Engine. Config, Halo and Compute are
// required; the rest are optional.
type Deps struct {
	Config   *config.Sweep
	Halo     halo.Module
	Compute  compute.Engine
	Plotter  plot.Plotter
	Resolver *quenching.Resolver
	Ledger   ledger.Ledger
	Metrics  *observability.Metrics
	Tracer   *observability.Tracer
	// RunID identifies the run in logs and the ledger. Empty generates one.
	RunID string
}

// RunOptions are per-run plot settings.
type RunOptions struct {
	ExportPlot bool
	XLim       *config.Limits
	YLim       *config.Limits
}

// Engine drives one sweep.
type Engine struct {
	cfg      *config.Sweep
	halo     halo.Module
	plotter  plot.Plotter
	resolver *quenching.Resolver
	adapter  *invoke.Adapter
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	runID    string
}

// New validates d and builds an Engine.
func New(d Deps) (*Engine, error) {
	if d.Config == nil {
		return nil, errors.New("sweep: config is required")
	}
	if d.Halo == nil {
		return nil, errors.New("sweep: halo module is required")
	}
	if d.Compute == nil {
		return nil, errors.New("sweep: computation engine is required")
	}
	if d.Resolver == nil {
		d.Resolver = quenching.NewResolver(nil)
	}
	if d.RunID == "" {
		d.RunID = uuid.NewString()
	}

	return &Engine{
		cfg:      d.Config,
		halo:     d.Halo,
		plotter:  d.Plotter,
		resolver: d.Resolver,
		adapter: invoke.New(d.Compute,
			invoke.WithLedger(d.Ledger),
			invoke.WithMetrics(d.Metrics),
			invoke.WithTracer(d.Tracer),
			invoke.WithRunID(d.RunID),
		),
		metrics: d.Metrics,
		tracer:  d.Tracer,
		runID:   d.RunID,
	}, nil
}

// RunID returns the run identifier.
func (e *Engine) RunID() string { return e.runID }

// Run executes the sweep. The returned Report is non-nil even on error and
// covers everything done up to the failure.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	ctx, logger := ctxlog.With(ctx, "run_id", e.runID)

	mode := "halo_indep"
	if e.cfg.HaloDep() {
		mode = "halo_dep"
	}
	ctx, span := e.tracer.Start(ctx, "sweep.run",
		attribute.String("run_id", e.runID),
		attribute.String("mode", mode),
	)
	defer span.End()

	rep := &Report{RunID: e.runID, Mode: mode, Started: time.Now()}
	logger.Info("🚀 Starting sweep...",
		"mode", mode,
		"scattering_types", e.cfg.ScatteringTypes(),
		"experiments", e.cfg.Experiments(),
		"points", len(e.cfg.ParameterPoints()),
	)

	var err error
	if e.cfg.HaloDep() {
		err = e.runHaloDep(ctx, opts, rep)
	} else {
		err = e.runHaloIndep(ctx, opts, rep)
	}
	rep.Finished = time.Now()
	rep.Invocations = e.adapter.Calls()

	if err != nil {
		observability.RecordError(span, err)
		logger.Error("Sweep aborted.", "error", err, "invocations", rep.Invocations)
		return rep, fmt.Errorf("sweep %s aborted: %w", e.runID, err)
	}
	logger.Info("🏁 Sweep finished.",
		"invocations", rep.Invocations,
		"skipped", len(rep.Skips),
		"plots", len(rep.PlotFiles),
		"duration", rep.Finished.Sub(rep.Started),
	)
	return rep, nil
}

// call snapshots it and invokes the engine. Skips are recorded in rep and
// swallowed.
func (e *Engine) call(ctx context.Context, it config.Iteration, multi bool, rep *Report) error {
	snap := e.cfg.Snapshot(it)
	var err error
	if multi {
		err = e.adapter.InvokeMulti(ctx, snap)
	} else {
		err = e.adapter.Invoke(ctx, snap)
	}
	if err == nil {
		if multi {
			rep.MultiCalls++
		} else {
			rep.Calls++
		}
		return nil
	}
	var skip *invoke.SkipError
	if errors.As(err, &skip) {
		rep.addSkip(it, skip.Reason, skip.Err)
		return nil
	}
	return err
}
