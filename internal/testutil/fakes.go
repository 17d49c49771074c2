package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/halo"
	"github.com/vk/dmsweep/internal/plot"
)

// FakeHalo is a deterministic halo.Module. Every method returns values
// derived from its arguments so tests can check what was passed in.
type FakeHalo struct {
	Points []config.ParameterPoint
	// MassRanges maps experiment tokens to mass ranges. Tokens that are not
	// present fail with halo.ErrNoMassRange.
	MassRanges map[string][]float64
	LogSigmaP0 float64
	PointsErr  error

	mu    sync.Mutex
	calls []string
}

var _ halo.Module = (*FakeHalo)(nil)

func (h *FakeHalo) record(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

// Calls returns the recorded method calls in order.
func (h *FakeHalo) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *FakeHalo) ParameterPointList(context.Context) ([]config.ParameterPoint, error) {
	if h.PointsErr != nil {
		return nil, h.PointsErr
	}
	return append([]config.ParameterPoint(nil), h.Points...), nil
}

func (h *FakeHalo) MassRange(_ context.Context, exper string, delta, mPhi float64, q *float64) ([]float64, error) {
	h.record("MassRange(%s,%g,%g,%s)", exper, delta, mPhi, fmtFactor(q))
	r, ok := h.MassRanges[exper]
	if !ok {
		return nil, fmt.Errorf("%w: %s", halo.ErrNoMassRange, exper)
	}
	return append([]float64(nil), r...), nil
}

func (h *FakeHalo) VminRange(_ context.Context, exper string, mx, delta, mPhi float64, q *float64, ehi bool) ([]float64, error) {
	h.record("VminRange(%s,%g,%s,%t)", exper, mx, fmtFactor(q), ehi)
	return []float64{mx, 1000, 50}, nil
}

func (h *FakeHalo) VminEHIBandRange(_ context.Context, exper string, mx, delta, mPhi float64) ([]float64, error) {
	h.record("VminEHIBandRange(%s,%g)", exper, mx)
	return []float64{mx, 900, 10}, nil
}

func (h *FakeHalo) LogetaEHIBandPercentRange(context.Context) ([]float64, error) {
	return []float64{0.2, 0.2, 20}, nil
}

func (h *FakeHalo) Steepness(_ context.Context, exper string, mx, delta, mPhi float64) ([]float64, error) {
	return []float64{1.5, 2.5, 1}, nil
}

func (h *FakeHalo) LogetaGuess(_ context.Context, exper string, mx, delta, mPhi float64) (float64, error) {
	return -mx, nil
}

func (h *FakeHalo) LogSigmaP(_ context.Context, mx, delta, fnOverFp float64) (float64, error) {
	h.record("LogSigmaP(%g,%g,%g)", mx, delta, fnOverFp)
	return h.LogSigmaP0 - mx, nil
}

func fmtFactor(q *float64) string {
	if q == nil {
		return "nil"
	}
	return fmt.Sprintf("%g", *q)
}

// RecordingEngine is a compute.Engine that records every snapshot.
type RecordingEngine struct {
	// Errs maps experiment names to the error their calls return.
	Errs map[string]error

	mu     sync.Mutex
	single []config.Snapshot
	multi  []config.Snapshot
	order  []string
}

func (e *RecordingEngine) Run(_ context.Context, snap config.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.single = append(e.single, snap)
	e.order = append(e.order, "single:"+snap.ExperName)
	return e.Errs[snap.ExperName]
}

func (e *RecordingEngine) RunMultiExperiment(_ context.Context, snap config.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.multi = append(e.multi, snap)
	e.order = append(e.order, "multi:"+snap.ExperName)
	return e.Errs["multi:"+snap.ExperName]
}

// Snapshots returns the single-experiment snapshots in call order.
func (e *RecordingEngine) Snapshots() []config.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]config.Snapshot(nil), e.single...)
}

// MultiSnapshots returns the multi-experiment snapshots in call order.
func (e *RecordingEngine) MultiSnapshots() []config.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]config.Snapshot(nil), e.multi...)
}

// Order returns "single:<exper>" / "multi:<exper>" for every call.
func (e *RecordingEngine) Order() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.order...)
}

// RecordingPlotter is a plot.Plotter that records every operation.
type RecordingPlotter struct {
	Ext string

	mu      sync.Mutex
	ops     []string
	legends []plot.Legend
	saved   []string
}

func (p *RecordingPlotter) Legend(_ context.Context, l plot.Legend) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, "legend")
	p.legends = append(p.legends, l)
	return nil
}

func (p *RecordingPlotter) Limits(_ context.Context, x, y *config.Limits) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, "limits")
	return nil
}

func (p *RecordingPlotter) Save(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, "save")
	p.saved = append(p.saved, path)
	return nil
}

func (p *RecordingPlotter) Reset(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, "reset")
	return nil
}

func (p *RecordingPlotter) Extension() string {
	if p.Ext == "" {
		return ".pdf"
	}
	return p.Ext
}

func (p *RecordingPlotter) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ops...)
}

func (p *RecordingPlotter) Legends() []plot.Legend {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]plot.Legend(nil), p.legends...)
}

func (p *RecordingPlotter) Saved() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.saved...)
}
