package sweep

import (
	"context"
	"fmt"

	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/plot"
)

// renderPlot runs the plot steps at the end of an outer group. The legend
// is drawn when plotting is enabled, or unconditionally when alwaysLegend
// is set; limits, export and reset only happen when plotting is enabled.
func (e *Engine) renderPlot(ctx context.Context, opts RunOptions, l plot.Legend, tail string, alwaysLegend bool, rep *Report) error {
	e.metrics.RecordIteration()
	if e.plotter == nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	enabled := e.cfg.Flags().MakePlot || e.cfg.MethodFlags().ConfidenceBandPlot

	if enabled || alwaysLegend {
		if err := e.plotter.Legend(ctx, l); err != nil {
			return fmt.Errorf("plot legend: %w", err)
		}
		e.metrics.RecordPlot("legend")
	}
	if !enabled {
		return nil
	}

	if opts.XLim != nil || opts.YLim != nil {
		if err := e.plotter.Limits(ctx, opts.XLim, opts.YLim); err != nil {
			return fmt.Errorf("plot limits: %w", err)
		}
		e.metrics.RecordPlot("limits")
	}
	if !opts.ExportPlot {
		return nil
	}

	path := plot.FileName(l, tail, e.cfg.OutputMainDir(), e.plotter.Extension())
	if err := e.plotter.Save(ctx, path); err != nil {
		return fmt.Errorf("plot save %s: %w", path, err)
	}
	e.metrics.RecordPlot("save")
	logger.Info("📈 Plot exported.", "path", path)
	rep.PlotFiles = append(rep.PlotFiles, path)

	if err := e.plotter.Reset(ctx); err != nil {
		return fmt.Errorf("plot reset: %w", err)
	}
	e.metrics.RecordPlot("reset")
	return nil
}
