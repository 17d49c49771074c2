package hcl

import (
	"context"
	"fmt"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/schema"
)

// translateSweep converts the HCL-specific sweep schema into the agnostic
// options, starting from the defaults.
func (l *Loader) translateSweep(ctx context.Context, s *schema.Sweep, doc *config.Document) error {
	logger := ctxlog.FromContext(ctx)
	opts := config.DefaultOptions()

	opts.HaloDep = s.HaloDep
	opts.Experiments = s.Experiments
	opts.ExtraTail = s.ExtraTail
	opts.EHIMethod = s.EHIMethod
	opts.Flags = config.RunFlags{
		RunProgram:       s.RunProgram,
		MakeRegions:      s.MakeRegions,
		MakeCrosses:      s.MakeCrosses,
		MakeLimits:       s.MakeLimits,
		MakePlot:         s.MakePlot,
		MultiExper:       s.MultiExper,
		MultiLoglikelist: s.MultiLoglikelist,
		GenerateMC:       s.GenerateMC,
		PlotDots:         s.PlotDots,
	}
	if s.FilenameTails != nil {
		opts.FilenameTails = *s.FilenameTails
	}
	if s.OutputMainDir != nil {
		opts.OutputMainDir = *s.OutputMainDir
	}
	if s.CLList != nil {
		opts.CLList = *s.CLList
	}
	if s.SigmaDevList != nil {
		opts.SigmaDevList = *s.SigmaDevList
	}

	var err error
	if opts.ExperimentSelector, err = selectorFromExpr(s.ExperIndices); err != nil {
		return fmt.Errorf("exper_indices: %w", err)
	}
	if opts.InputSelector, err = selectorFromExpr(s.InputIndices); err != nil {
		return fmt.Errorf("input_indices: %w", err)
	}
	if opts.MultiExperSelector, err = selectorFromExpr(s.MultiExperIndices); err != nil {
		return fmt.Errorf("multiexper_indices: %w", err)
	}
	if opts.ScatteringTypes, err = scatteringFromExpr(s.ScatteringType, opts.ScatteringTypes); err != nil {
		return fmt.Errorf("scattering_type: %w", err)
	}

	plot := config.PlotOptions{Export: s.ExportPlot}
	if plot.XLim, err = limitsFrom(s.XLim); err != nil {
		return fmt.Errorf("xlim: %w", err)
	}
	if plot.YLim, err = limitsFrom(s.YLim); err != nil {
		return fmt.Errorf("ylim: %w", err)
	}

	doc.Sweep = opts
	doc.Plot = plot
	logger.Debug("Translated sweep block.",
		"halo_dep", opts.HaloDep,
		"exper_indices", opts.ExperimentSelector.String(),
		"input_indices", opts.InputSelector.String(),
		"scattering_types", opts.ScatteringTypes.List(),
	)
	return nil
}

func limitsFrom(v []float64) (*config.Limits, error) {
	if v == nil {
		return nil, nil
	}
	if len(v) != 2 {
		return nil, fmt.Errorf("%w: axis limits need exactly two values, got %d", config.ErrConfig, len(v))
	}
	return &config.Limits{Min: v[0], Max: v[1]}, nil
}
