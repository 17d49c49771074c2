package sweep

import (
	"context"
	"fmt"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/plot"
	"github.com/vk/dmsweep/internal/quenching"
)

func (e *Engine) runHaloIndep(ctx context.Context, opts RunOptions, rep *Report) error {
	ehi := e.cfg.MethodFlags().Any()

	for _, st := range e.cfg.ScatteringTypes() {
		for _, tail := range e.cfg.FilenameTails() {
			for _, pt := range e.cfg.ParameterPoints() {
				if err := ctx.Err(); err != nil {
					return err
				}
				pctx, logger := ctxlog.With(ctx, "scattering_type", st, "filename_tail", tail, "mx", pt.Mx, "fn", pt.Fn, "delta", pt.Delta, "mPhi", pt.MPhi)
				logger.Debug("Starting parameter point.")

				base := config.Iteration{ScatteringType: st, FilenameTail: tail, Point: pt}
				// Derived values carry over between the experiments of a
				// point; LogSigmaP starts unset for every point.
				var derived config.Derived

				for _, exp := range e.cfg.Experiments() {
					it := base.WithExperiment(exp)
					var err error
					if derived, err = e.dispatch(pctx, it, derived); err != nil {
						return err
					}

					for _, q := range e.resolver.Resolve(exp) {
						first := quenching.FirstToken(exp)
						vmin, err := e.halo.VminRange(pctx, first, pt.Mx, pt.Delta, pt.MPhi, q.First(), ehi)
						if err != nil {
							return fmt.Errorf("vmin range for %q: %w", exp, err)
						}
						derived.VminRange = vmin
						if ehi && exp == config.EHIExperiment {
							band, err := e.halo.VminEHIBandRange(pctx, first, pt.Mx, pt.Delta, pt.MPhi)
							if err != nil {
								return fmt.Errorf("EHI band range for %q: %w", exp, err)
							}
							derived.VminEHIBandRange = band
						}
						logger.Debug("Resolved vmin range.", "experiment", exp, "vmin_range", vmin)

						if err := e.call(pctx, it.WithQuenching(q.Collapse()).WithDerived(derived), false, rep); err != nil {
							return err
						}
					}
				}

				if e.cfg.Flags().MultiExper && len(e.cfg.MultiExperInput()) > 0 {
					var err error
					if derived, err = e.multiExperimentPass(pctx, base, derived, rep); err != nil {
						return err
					}
				}

				legend := plot.Legend{
					ScatteringType: st,
					MPhi:           pt.MPhi,
					Fp:             e.cfg.Fp(),
					Fn:             pt.Fn,
					Delta:          pt.Delta,
					Mx:             &pt.Mx,
					LogSigmaP:      derived.LogSigmaP,
				}
				if err := e.renderPlot(pctx, opts, legend, tail, false, rep); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// multiExperimentPass runs the aggregate computation over the
// multi-experiment subset, using the EHI experiment for every derived range.
func (e *Engine) multiExperimentPass(ctx context.Context, base config.Iteration, derived config.Derived, rep *Report) (config.Derived, error) {
	pt := base.Point
	d, err := e.ehiBand(ctx, config.EHIExperiment, pt, derived)
	if err != nil {
		return derived, err
	}
	unit := 1.0
	if d.VminRange, err = e.halo.VminRange(ctx, config.EHIExperiment, pt.Mx, pt.Delta, pt.MPhi, &unit, e.cfg.MethodFlags().Any()); err != nil {
		return derived, fmt.Errorf("vmin range for multi-experiment pass: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Running multi-experiment pass.", "experiments", e.cfg.MultiExperInput(), "vmin_range", d.VminRange)

	it := base.WithExperiment(config.EHIExperiment).
		WithQuenching(config.ScalarQuenching(unit)).
		WithDerived(d)
	if err := e.call(ctx, it, true, rep); err != nil {
		return derived, err
	}
	return d, nil
}
