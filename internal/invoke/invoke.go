// Package invoke calls the computation engine with a snapshot of the sweep
// state and contains the failures the sweep can recover from.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/vk/dmsweep/internal/compute"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/ledger"
	"github.com/vk/dmsweep/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// Skip reasons.
const (
	ReasonMissingArtifact = "missing_artifact"
	ReasonNoMassRange     = "no_mass_range"
)

// SkipError reports a recoverable failure: the combination is skipped and
// the sweep continues.
type SkipError struct {
	Reason    string
	ExperName string
	Err       error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skipped %q (%s): %v", e.ExperName, e.Reason, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Adapter forwards snapshots to a compute.Engine.
type Adapter struct {
	engine  compute.Engine
	ledger  ledger.Ledger
	metrics *observability.Metrics
	tracer  *observability.Tracer
	runID   string
	seq     int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLedger records every call in l.
func WithLedger(l ledger.Ledger) Option { return func(a *Adapter) { a.ledger = l } }

// WithMetrics records call counts and durations in m.
func WithMetrics(m *observability.Metrics) Option { return func(a *Adapter) { a.metrics = m } }

// WithTracer wraps every call in a span.
func WithTracer(t *observability.Tracer) Option { return func(a *Adapter) { a.tracer = t } }

// WithRunID sets the run id used for ledger entries.
func WithRunID(id string) Option { return func(a *Adapter) { a.runID = id } }

// New creates an Adapter around engine.
func New(engine compute.Engine, opts ...Option) *Adapter {
	a := &Adapter{engine: engine}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Calls returns the number of engine calls made so far.
func (a *Adapter) Calls() int { return a.seq }

// Invoke runs the single-experiment computation. A missing artifact comes
// back as *SkipError; every other failure is returned wrapped and is fatal.
func (a *Adapter) Invoke(ctx context.Context, snap config.Snapshot) error {
	return a.call(ctx, ledger.EntrySingle, snap, a.engine.Run)
}

// InvokeMulti runs the multi-experiment computation with the same failure
// rules as Invoke.
func (a *Adapter) InvokeMulti(ctx context.Context, snap config.Snapshot) error {
	return a.call(ctx, ledger.EntryMulti, snap, a.engine.RunMultiExperiment)
}

func (a *Adapter) call(ctx context.Context, entry string, snap config.Snapshot, fn func(context.Context, config.Snapshot) error) error {
	a.seq++
	logger := ctxlog.FromContext(ctx).With("entry", entry, "experiment", snap.ExperName, "seq", a.seq)

	ctx, span := a.tracer.Start(ctx, "compute."+entry,
		attribute.String("experiment", snap.ExperName),
		attribute.String("scattering_type", snap.ScatteringType),
		attribute.Int("seq", a.seq),
	)
	defer span.End()

	logger.Debug("Calling computation engine.")
	start := time.Now()
	err := fn(ctx, snap)
	elapsed := time.Since(start)

	status := ledger.StatusOK
	switch {
	case err == nil:
		logger.Debug("Computation finished.", "duration", elapsed)
	case IsMissingArtifact(err):
		status = ledger.StatusSkipped
		logger.Warn("Computation artifact missing, skipping.", "error", err)
		a.metrics.RecordSkip(ReasonMissingArtifact)
		err = &SkipError{Reason: ReasonMissingArtifact, ExperName: snap.ExperName, Err: err}
	default:
		status = ledger.StatusFailed
		observability.RecordError(span, err)
		err = fmt.Errorf("%s computation for %q failed: %w", entry, snap.ExperName, err)
	}
	a.metrics.RecordInvocation(entry, string(status), elapsed.Seconds())

	// A ledger failure is fatal whatever the call's outcome; it must never be
	// hidden behind a SkipError.
	if lerr := a.record(ctx, entry, snap, status, err); lerr != nil {
		lerr = fmt.Errorf("failed to record %s computation for %q: %w", entry, snap.ExperName, lerr)
		if status == ledger.StatusFailed {
			return errors.Join(err, lerr)
		}
		return lerr
	}
	return err
}

func (a *Adapter) record(ctx context.Context, entry string, snap config.Snapshot, status ledger.Status, callErr error) error {
	if a.ledger == nil {
		return nil
	}
	body, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for ledger: %w", err)
	}
	e := ledger.Entry{
		RunID:          a.runID,
		Seq:            a.seq,
		EntryPoint:     entry,
		ExperName:      snap.ExperName,
		ScatteringType: snap.ScatteringType,
		Status:         status,
		Snapshot:       body,
		RecordedAt:     time.Now(),
	}
	if callErr != nil {
		e.Error = callErr.Error()
	}
	return a.ledger.Record(ctx, e)
}

// IsMissingArtifact reports whether err means precomputed data was absent.
func IsMissingArtifact(err error) bool {
	return errors.Is(err, compute.ErrMissingArtifact) || errors.Is(err, fs.ErrNotExist)
}

// IsSkip reports whether err is a recoverable skip.
func IsSkip(err error) bool {
	var s *SkipError
	return errors.As(err, &s)
}
