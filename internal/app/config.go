package app

import (
	"fmt"

	"github.com/vk/dmsweep/internal/config"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SweepPath string // a sweep file or a directory of .hcl files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// ExportPlot forces plot export on top of the sweep file's export_plot.
	ExportPlot bool
	// XLim and YLim override the sweep file's axis limits when set.
	XLim *config.Limits
	YLim *config.Limits

	// ReportPath, when set, receives the YAML run report.
	ReportPath string

	// OTLPEndpoint enables span export to an OTLP gRPC collector.
	OTLPEndpoint string
	OTLPInsecure bool
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SweepPath == "" {
		return nil, fmt.Errorf("%w: SweepPath is a required configuration field and cannot be empty", config.ErrConfig)
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok && cfg.LogLevel != "" {
		return nil, fmt.Errorf("%w: unknown log level %q", config.ErrConfig, cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", config.ErrConfig, cfg.LogFormat)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("%w: healthcheck port %d out of range", config.ErrConfig, cfg.HealthcheckPort)
	}
	for name, lim := range map[string]*config.Limits{"xlim": cfg.XLim, "ylim": cfg.YLim} {
		if lim != nil && lim.Min >= lim.Max {
			return nil, fmt.Errorf("%w: %s minimum %g must be below maximum %g", config.ErrConfig, name, lim.Min, lim.Max)
		}
	}
	return &cfg, nil
}
