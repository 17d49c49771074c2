// Package halo defines the contract of the halo/physics collaborator that
// supplies parameter points and the ranges derived from them.
package halo

import (
	"context"
	"errors"

	"github.com/vk/dmsweep/internal/config"
)

// The two halo modules are registered under these fixed identifiers; the
// sweep's halo-dependence flag picks one.
const (
	DependentID   = "halo_dep"
	IndependentID = "halo_indep"
)

// ID returns the identifier of the module serving the given mode.
func ID(haloDep bool) string {
	if haloDep {
		return DependentID
	}
	return IndependentID
}

// ErrNoMassRange is returned by MassRange when the experiment has no
// registered mass-search range. The sweep skips such combinations.
var ErrNoMassRange = errors.New("no mass range registered for experiment")

// Module is a halo/physics module. Experiment arguments are single tokens
// (the first token of a compound experiment name) unless noted otherwise.
type Module interface {
	config.PointSource

	// MassRange solves the DM mass-search range for the halo-dependent scan.
	MassRange(ctx context.Context, exper string, delta, mPhi float64, quenching *float64) ([]float64, error)

	// VminRange returns the velocity-threshold scan range.
	VminRange(ctx context.Context, exper string, mx, delta, mPhi float64, quenching *float64, ehi bool) ([]float64, error)

	// VminEHIBandRange returns the velocity range of the EHI confidence band.
	VminEHIBandRange(ctx context.Context, exper string, mx, delta, mPhi float64) ([]float64, error)

	// LogetaEHIBandPercentRange returns the percentage window around the
	// best-fit logeta used for the EHI band. It does not depend on the point.
	LogetaEHIBandPercentRange(ctx context.Context) ([]float64, error)

	Steepness(ctx context.Context, exper string, mx, delta, mPhi float64) ([]float64, error)

	LogetaGuess(ctx context.Context, exper string, mx, delta, mPhi float64) (float64, error)

	// LogSigmaP returns log10 of the proton cross-section for an SHM
	// benchmark at the given mass, mass splitting and coupling ratio.
	LogSigmaP(ctx context.Context, mx, delta, fnOverFp float64) (float64, error)
}
