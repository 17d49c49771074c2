package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/dmsweep/internal/app"
	"github.com/vk/dmsweep/internal/config"
)

// Exit codes.
const (
	ExitFailure     = 1
	ExitConfigError = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode maps an error returned by the application to a process exit code:
// configuration errors exit with 2, everything else with 1.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, config.ErrConfig) {
		return ExitConfigError
	}
	return ExitFailure
}

const longHelp = `dmsweep - a parameter-sweep orchestrator for dark-matter direct-detection analyses.

It reads a sweep definition (HCL), iterates every combination of scattering
type, filename tag, parameter point, experiment and quenching calibration, and
hands a snapshot of each to the configured computation engine.

Arguments:
  SWEEP_PATH
    Path to a single .hcl file or a directory containing .hcl files.`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		sweepPath  string
		logFormat  string
		logLevel   string
		healthPort int
		exportPlot bool
		xlim, ylim string
		reportPath string
		otlpEndpt  string
		otlpInsec  bool
		positional []string
		ran        bool
	)

	cmd := &cobra.Command{
		Use:           "dmsweep [flags] [SWEEP_PATH]",
		Short:         "Run a dark-matter direct-detection parameter sweep",
		Long:          longHelp,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ran = true
			positional = args
			return nil
		},
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringVarP(&sweepPath, "sweep", "s", "", "Path to the sweep file or directory.")
	flags.IntVar(&healthPort, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	flags.StringVar(&logFormat, "log-format", "json", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.BoolVar(&exportPlot, "export-plot", false, "Export a plot file per outer iteration.")
	flags.StringVar(&xlim, "xlim", "", "Override the x-axis limits, as 'min,max'.")
	flags.StringVar(&ylim, "ylim", "", "Override the y-axis limits, as 'min,max'.")
	flags.StringVar(&reportPath, "report", "", "Write the YAML run report to this file.")
	flags.StringVar(&otlpEndpt, "otlp-endpoint", "", "OTLP gRPC collector address for trace export. Empty disables tracing.")
	flags.BoolVar(&otlpInsec, "otlp-insecure", false, "Connect to the OTLP collector without TLS.")

	if err := cmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: ExitConfigError, Message: err.Error()}
	}
	if !ran {
		// --help was handled by cobra.
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.")

	path := sweepPath
	if path == "" && len(positional) > 0 {
		path = positional[0]
	}
	slog.Debug("Sweep path determined.", "path", path)

	if path == "" {
		slog.Debug("No sweep path provided, printing usage and exiting.")
		_ = cmd.Usage()
		return nil, true, nil
	}

	logFormat = strings.ToLower(logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitConfigError, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel = strings.ToLower(logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitConfigError, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	xl, err := parseLimits("xlim", xlim)
	if err != nil {
		return nil, false, &ExitError{Code: ExitConfigError, Message: err.Error()}
	}
	yl, err := parseLimits("ylim", ylim)
	if err != nil {
		return nil, false, &ExitError{Code: ExitConfigError, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		SweepPath:       path,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: healthPort,
		ExportPlot:      exportPlot,
		XLim:            xl,
		YLim:            yl,
		ReportPath:      reportPath,
		OTLPEndpoint:    otlpEndpt,
		OTLPInsecure:    otlpInsec,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitConfigError, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

// parseLimits parses "min,max". An empty value means no override.
func parseLimits(name, v string) (*config.Limits, error) {
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid %s %q: expected 'min,max'", name, v)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s minimum %q", name, parts[0])
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s maximum %q", name, parts[1])
	}
	return &config.Limits{Min: lo, Max: hi}, nil
}
