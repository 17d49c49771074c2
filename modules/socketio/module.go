// Package socketio provides a plotting backend that streams plot state to a
// live dashboard over socket.io.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/plot"
	"github.com/vk/dmsweep/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted to the dashboard.
const (
	EventLegend = "plot:legend"
	EventLimits = "plot:limits"
	EventSave   = "plot:save"
	EventReset  = "plot:reset"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a `plot "socketio" { ... }` block.
type Input struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	Extension          string `hcl:"extension,optional"`
	ConnectTimeout     string `hcl:"connect_timeout,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}

// Plotter emits one event per plot operation.
type Plotter struct {
	mu         sync.Mutex
	ext        string
	runID      string
	emit       func(event string, payload map[string]any)
	disconnect func()
}

var _ plot.Plotter = (*Plotter)(nil)

func newPlotter(ext, runID string, emit func(string, map[string]any), disconnect func()) *Plotter {
	if ext == "" {
		ext = ".png"
	}
	return &Plotter{ext: ext, runID: runID, emit: emit, disconnect: disconnect}
}

// Connect dials the dashboard and waits for the connection to be
// established.
func Connect(ctx context.Context, input *Input, runID string) (*Plotter, error) {
	logger := ctxlog.FromContext(ctx).With("plot", "socketio", "url", input.URL)
	logger.Info("Connecting to plot dashboard...")

	parsedURL, err := url.Parse(input.URL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: invalid socket.io url %q", config.ErrConfig, input.URL)
	}
	timeout := 15 * time.Second
	if input.ConnectTimeout != "" {
		if timeout, err = time.ParseDuration(input.ConnectTimeout); err != nil {
			return nil, fmt.Errorf("%w: invalid connect_timeout %q", config.ErrConfig, input.ConnectTimeout)
		}
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(input.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	emit := func(event string, payload map[string]any) {
		io.Emit(event, payload)
	}
	return newPlotter(input.Extension, runID, emit, func() { io.Disconnect() }), nil
}

func (p *Plotter) send(ctx context.Context, event string, payload map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	payload["run_id"] = p.runID
	ctxlog.FromContext(ctx).Debug("Emitting plot event.", "event", event)
	p.emit(event, payload)
}

// Legend emits the legend of the current plot.
func (p *Plotter) Legend(ctx context.Context, l plot.Legend) error {
	payload := map[string]any{
		"halo_dep":        l.HaloDep,
		"scattering_type": l.ScatteringType,
		"mPhi":            l.MPhi,
		"fp":              l.Fp,
		"fn":              l.Fn,
		"delta":           l.Delta,
	}
	if l.Mx != nil {
		payload["mx"] = *l.Mx
	}
	if l.LogSigmaP != nil {
		payload["log_sigma_p"] = *l.LogSigmaP
	}
	p.send(ctx, EventLegend, payload)
	return nil
}

// Limits emits the axis limits of the current plot.
func (p *Plotter) Limits(ctx context.Context, x, y *config.Limits) error {
	payload := map[string]any{}
	if x != nil {
		payload["xlim"] = []float64{x.Min, x.Max}
	}
	if y != nil {
		payload["ylim"] = []float64{y.Min, y.Max}
	}
	p.send(ctx, EventLimits, payload)
	return nil
}

// Save asks the dashboard to export the current plot to path.
func (p *Plotter) Save(ctx context.Context, path string) error {
	p.send(ctx, EventSave, map[string]any{"file": path})
	return nil
}

// Reset asks the dashboard to start a new plot.
func (p *Plotter) Reset(ctx context.Context) error {
	p.send(ctx, EventReset, map[string]any{})
	return nil
}

// Extension returns the file extension of exported plots.
func (p *Plotter) Extension() string { return p.ext }

// Close disconnects from the dashboard.
func (p *Plotter) Close() error {
	if p.disconnect != nil {
		p.disconnect()
	}
	return nil
}

// Register registers the plotter factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterPlotter("socketio", &registry.RegisteredPlotter{
		NewInput: func() any { return new(Input) },
		Create: func(ctx context.Context, env registry.Env, input any) (plot.Plotter, error) {
			return Connect(ctx, input.(*Input), env.RunID)
		},
	})
}
