// Package plot defines the plotting collaborator and the deterministic
// naming of exported plot files.
package plot

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vk/dmsweep/internal/config"
)

// Legend carries everything a legend render needs. Mx and LogSigmaP are set
// in halo-independent mode only.
type Legend struct {
	HaloDep        bool     `yaml:"halo_dep" json:"halo_dep"`
	ScatteringType string   `yaml:"scattering_type" json:"scattering_type"`
	MPhi           float64  `yaml:"mPhi" json:"mPhi"`
	Fp             float64  `yaml:"fp" json:"fp"`
	Fn             float64  `yaml:"fn" json:"fn"`
	Delta          float64  `yaml:"delta" json:"delta"`
	Mx             *float64 `yaml:"mx,omitempty" json:"mx,omitempty"`
	LogSigmaP      *float64 `yaml:"log_sigma_p,omitempty" json:"log_sigma_p,omitempty"`
}

// Plotter is the shared plot state. It is never called concurrently.
type Plotter interface {
	Legend(ctx context.Context, l Legend) error
	Limits(ctx context.Context, x, y *config.Limits) error
	Save(ctx context.Context, path string) error
	Reset(ctx context.Context) error
	// Extension is the file extension of saved plots, including the dot.
	Extension() string
}

// FileName returns the export path for a plot. Equal inputs always give the
// same path.
func FileName(l Legend, tail, outDir, ext string) string {
	var b strings.Builder
	if l.HaloDep {
		b.WriteString("HaloDep_")
	} else {
		b.WriteString("HaloIndep_")
	}
	b.WriteString(l.ScatteringType)
	if l.Mx != nil {
		b.WriteString("_mx_" + formatFloat(*l.Mx) + "GeV")
	}
	b.WriteString("_fnfp_" + formatFloat(l.Fn/l.Fp))
	b.WriteString("_delta_" + formatFloat(l.Delta) + "keV")
	b.WriteString("_mphi_" + formatFloat(l.MPhi) + "MeV")
	b.WriteString(tail)
	b.WriteString(ext)
	return filepath.Join(outDir, b.String())
}

// formatFloat uses the shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
