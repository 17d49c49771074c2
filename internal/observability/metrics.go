package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one sweep run. Collectors are registered
// with a private registry so several runs can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// InvocationCounter counts engine calls.
	// Labels: entry (single|multi), status (ok|skipped|failed)
	InvocationCounter *prometheus.CounterVec

	// InvocationDuration measures engine call latency in seconds.
	// Labels: entry
	InvocationDuration *prometheus.HistogramVec

	// SkipCounter counts recoverable failures.
	// Labels: reason (no_mass_range|missing_artifact)
	SkipCounter *prometheus.CounterVec

	// PlotCounter counts plot operations.
	// Labels: op (legend|limits|save|reset)
	PlotCounter *prometheus.CounterVec

	// IterationsTotal counts outer sweep iterations (plot groups).
	IterationsTotal prometheus.Counter
}

// NewMetrics creates the collectors and registers them with a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		InvocationCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmsweep_invocations_total",
				Help: "Total number of computation engine calls",
			},
			[]string{"entry", "status"},
		),
		InvocationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dmsweep_invocation_duration_seconds",
				Help:    "Duration of computation engine calls in seconds",
				Buckets: []float64{0.01, 0.1, 1, 10, 60, 300, 1800, 7200},
			},
			[]string{"entry"},
		),
		SkipCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmsweep_skips_total",
				Help: "Total number of skipped sweep combinations",
			},
			[]string{"reason"},
		),
		PlotCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmsweep_plot_operations_total",
				Help: "Total number of plot operations",
			},
			[]string{"op"},
		),
		IterationsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "dmsweep_outer_iterations_total",
				Help: "Total number of outer sweep iterations",
			},
		),
	}
}

// Registry exposes the private registry, for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordInvocation records one engine call.
func (m *Metrics) RecordInvocation(entry, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.InvocationCounter.WithLabelValues(entry, status).Inc()
	m.InvocationDuration.WithLabelValues(entry).Observe(durationSeconds)
}

// RecordSkip records one skipped combination.
func (m *Metrics) RecordSkip(reason string) {
	if m == nil {
		return
	}
	m.SkipCounter.WithLabelValues(reason).Inc()
}

// RecordPlot records one plot operation.
func (m *Metrics) RecordPlot(op string) {
	if m == nil {
		return
	}
	m.PlotCounter.WithLabelValues(op).Inc()
}

// RecordIteration records one outer iteration.
func (m *Metrics) RecordIteration() {
	if m == nil {
		return
	}
	m.IterationsTotal.Inc()
}
