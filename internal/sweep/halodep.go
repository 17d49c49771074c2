package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/halo"
	"github.com/vk/dmsweep/internal/invoke"
	"github.com/vk/dmsweep/internal/plot"
	"github.com/vk/dmsweep/internal/quenching"
)

func (e *Engine) runHaloDep(ctx context.Context, opts RunOptions, rep *Report) error {
	for _, st := range e.cfg.ScatteringTypes() {
		for _, tail := range e.cfg.FilenameTails() {
			for _, pt := range e.cfg.ParameterPoints() {
				if err := ctx.Err(); err != nil {
					return err
				}
				pctx, logger := ctxlog.With(ctx, "scattering_type", st, "filename_tail", tail, "fn", pt.Fn, "delta", pt.Delta, "mPhi", pt.MPhi)
				base := config.Iteration{ScatteringType: st, FilenameTail: tail, Point: pt}

				for _, exp := range e.cfg.Experiments() {
					for _, q := range e.resolver.Resolve(exp) {
						it := base.WithExperiment(exp).WithQuenching(q.Collapse())

						// Only the first token's calibration drives the mass range.
						mr, err := e.halo.MassRange(pctx, quenching.FirstToken(exp), pt.Delta, pt.MPhi, q.First())
						if errors.Is(err, halo.ErrNoMassRange) {
							logger.Warn("No mass range for experiment, skipping.", "experiment", exp, "error", err)
							e.metrics.RecordSkip(invoke.ReasonNoMassRange)
							rep.addSkip(it, invoke.ReasonNoMassRange, err)
							continue
						}
						if err != nil {
							return fmt.Errorf("mass range for %q: %w", exp, err)
						}
						logger.Debug("Resolved mass range.", "experiment", exp, "mx_range", mr)

						if err := e.call(pctx, it.WithDerived(config.Derived{MxRange: mr}), false, rep); err != nil {
							return err
						}
					}
				}

				legend := plot.Legend{
					HaloDep:        true,
					ScatteringType: st,
					MPhi:           pt.MPhi,
					Fp:             e.cfg.Fp(),
					Fn:             pt.Fn,
					Delta:          pt.Delta,
				}
				if err := e.renderPlot(pctx, opts, legend, tail, true, rep); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
