package sweep

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
)

// shmEtaMarker marks experiments whose legend reports the SHM benchmark
// cross-section.
const shmEtaMarker = "SHM_eta"

// dispatch adds the experiment-specific derived fields to d before the
// quenching loop. Rules are checked in order and both may apply.
func (e *Engine) dispatch(ctx context.Context, it config.Iteration, d config.Derived) (config.Derived, error) {
	logger := ctxlog.FromContext(ctx)
	pt := it.Point

	if it.ExperName == config.EHIExperiment && e.cfg.MethodFlags().Any() && !e.cfg.Flags().MultiExper {
		var err error
		if d, err = e.ehiBand(ctx, it.ExperName, pt, d); err != nil {
			return d, err
		}
		logger.Debug("Dispatched EHI band setup.", "experiment", it.ExperName)
	}

	if strings.Contains(it.ExperName, shmEtaMarker) {
		v, err := e.halo.LogSigmaP(ctx, pt.Mx, pt.Delta, pt.Fn/e.cfg.Fp())
		if err != nil {
			return d, fmt.Errorf("log sigma_p for %q: %w", it.ExperName, err)
		}
		d.LogSigmaP = &v
		logger.Debug("Dispatched SHM cross-section.", "experiment", it.ExperName, "log_sigma_p", v)
	}
	return d, nil
}

// ehiBand fills the EHI band fields for exper at pt.
func (e *Engine) ehiBand(ctx context.Context, exper string, pt config.ParameterPoint, d config.Derived) (config.Derived, error) {
	var err error
	if d.VminEHIBandRange, err = e.halo.VminEHIBandRange(ctx, exper, pt.Mx, pt.Delta, pt.MPhi); err != nil {
		return d, fmt.Errorf("EHI band range for %q: %w", exper, err)
	}
	if d.LogetaEHIBandPercentRange, err = e.halo.LogetaEHIBandPercentRange(ctx); err != nil {
		return d, fmt.Errorf("logeta percent range: %w", err)
	}
	if d.Steepness, err = e.halo.Steepness(ctx, exper, pt.Mx, pt.Delta, pt.MPhi); err != nil {
		return d, fmt.Errorf("steepness for %q: %w", exper, err)
	}
	guess, err := e.halo.LogetaGuess(ctx, exper, pt.Mx, pt.Delta, pt.MPhi)
	if err != nil {
		return d, fmt.Errorf("logeta guess for %q: %w", exper, err)
	}
	d.LogetaGuess = &guess
	return d, nil
}
