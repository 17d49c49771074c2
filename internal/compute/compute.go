// Package compute defines the contract of the external computation engine.
package compute

import (
	"context"
	"errors"

	"github.com/vk/dmsweep/internal/config"
)

// ErrMissingArtifact is returned when a computation was asked to reuse
// precomputed data that does not exist. The sweep treats it as recoverable.
var ErrMissingArtifact = errors.New("computation artifact missing")

// Engine runs the per-experiment and multi-experiment computations. Calls
// are never concurrent.
type Engine interface {
	Run(ctx context.Context, snap config.Snapshot) error
	RunMultiExperiment(ctx context.Context, snap config.Snapshot) error
}
