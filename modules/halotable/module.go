// Package halotable provides a halo module backed by precomputed tables.
// The data directory holds halo_dep.hcl and/or halo_indep.hcl; the sweep's
// halo-dependence flag selects which one is read.
//
// Tables are keyed by experiment only. Every lookup ignores mx, delta, mPhi
// and the quenching factor, so the quenching candidates of one experiment
// all receive the same mass and vmin ranges. Sweeps that need ranges per
// quenching factor or per point must use a halo backend that computes them.
package halotable

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/dmsweep/internal/config"
	"github.com/vk/dmsweep/internal/ctxlog"
	"github.com/vk/dmsweep/internal/halo"
	"github.com/vk/dmsweep/internal/registry"
	"github.com/vk/dmsweep/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a `halo "table" { ... }` block.
type Input struct {
	DataDir string `hcl:"data_dir,optional"`
	// File overrides the table file name inside DataDir.
	File string `hcl:"file,optional"`
}

type vminEntry struct {
	rng         []float64
	ehiBand     []float64
	steepness   []float64
	logetaGuess *float64
}

// Table is a halo.Module answering from one decoded table file.
type Table struct {
	id           string
	haloDep      bool
	points       [][]float64
	massRanges   map[string][]float64
	vmin         map[string]vminEntry
	defaultVmin  []float64
	percentRange []float64
	logSigmaP    *float64
}

var _ halo.Module = (*Table)(nil)

// Load reads and decodes the table for the given mode.
func Load(ctx context.Context, dataDir, file string, haloDep bool) (*Table, error) {
	id := halo.ID(haloDep)
	if file == "" {
		file = id + ".hcl"
	}
	path := filepath.Join(dataDir, file)
	logger := ctxlog.FromContext(ctx).With("halo", id, "file", path)

	hclFile, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse halo table %s: %w", config.ErrConfig, path, diags)
	}
	var root schema.HaloTable
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("%w: failed to decode halo table %s: %w", config.ErrConfig, path, diags)
	}

	t := &Table{
		id:           id,
		haloDep:      haloDep,
		points:       root.Points,
		massRanges:   make(map[string][]float64, len(root.MassRanges)),
		vmin:         make(map[string]vminEntry, len(root.Vmin)),
		defaultVmin:  root.DefaultVmin,
		percentRange: root.LogetaPercentRange,
		logSigmaP:    root.LogSigmaP,
	}
	for _, mr := range root.MassRanges {
		if _, dup := t.massRanges[mr.Exper]; dup {
			return nil, fmt.Errorf("%w: duplicate mass_range %q in %s", config.ErrConfig, mr.Exper, path)
		}
		t.massRanges[mr.Exper] = mr.Range
	}
	for _, v := range root.Vmin {
		if _, dup := t.vmin[v.Exper]; dup {
			return nil, fmt.Errorf("%w: duplicate vmin %q in %s", config.ErrConfig, v.Exper, path)
		}
		t.vmin[v.Exper] = vminEntry{rng: v.Range, ehiBand: v.EHIBand, steepness: v.Steepness, logetaGuess: v.LogetaGuess}
	}

	logger.Debug("Halo table loaded.", "points", len(t.points), "mass_ranges", len(t.massRanges), "vmin_entries", len(t.vmin))
	return t, nil
}

// ParameterPointList returns the table's points for its mode.
func (t *Table) ParameterPointList(context.Context) ([]config.ParameterPoint, error) {
	out := make([]config.ParameterPoint, 0, len(t.points))
	for i, tuple := range t.points {
		p, err := config.NewParameterPoint(t.haloDep, tuple)
		if err != nil {
			return nil, fmt.Errorf("%s point %d: %w", t.id, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// MassRange returns the mass-search range of the experiment.
func (t *Table) MassRange(_ context.Context, exper string, _, _ float64, _ *float64) ([]float64, error) {
	r, ok := t.massRanges[exper]
	if !ok {
		return nil, fmt.Errorf("%w: %s", halo.ErrNoMassRange, exper)
	}
	return clone(r), nil
}

// VminRange returns the experiment's vmin range, or the table default.
func (t *Table) VminRange(_ context.Context, exper string, _, _, _ float64, _ *float64, _ bool) ([]float64, error) {
	if v, ok := t.vmin[exper]; ok {
		return clone(v.rng), nil
	}
	if t.defaultVmin != nil {
		return clone(t.defaultVmin), nil
	}
	return nil, fmt.Errorf("no vmin range for experiment %s in %s table", exper, t.id)
}

// VminEHIBandRange returns the experiment's EHI band vmin range.
func (t *Table) VminEHIBandRange(_ context.Context, exper string, _, _, _ float64) ([]float64, error) {
	v, ok := t.vmin[exper]
	if !ok || v.ehiBand == nil {
		return nil, fmt.Errorf("no EHI band range for experiment %s in %s table", exper, t.id)
	}
	return clone(v.ehiBand), nil
}

// LogetaEHIBandPercentRange returns the table-wide logeta percent window.
func (t *Table) LogetaEHIBandPercentRange(context.Context) ([]float64, error) {
	if t.percentRange == nil {
		return nil, fmt.Errorf("no logeta_percent_range in %s table", t.id)
	}
	return clone(t.percentRange), nil
}

// Steepness returns the experiment's EHI band steepness.
func (t *Table) Steepness(_ context.Context, exper string, _, _, _ float64) ([]float64, error) {
	v, ok := t.vmin[exper]
	if !ok || v.steepness == nil {
		return nil, fmt.Errorf("no steepness for experiment %s in %s table", exper, t.id)
	}
	return clone(v.steepness), nil
}

// LogetaGuess returns the experiment's starting logeta guess.
func (t *Table) LogetaGuess(_ context.Context, exper string, _, _, _ float64) (float64, error) {
	v, ok := t.vmin[exper]
	if !ok || v.logetaGuess == nil {
		return 0, fmt.Errorf("no logeta_guess for experiment %s in %s table", exper, t.id)
	}
	return *v.logetaGuess, nil
}

// LogSigmaP returns the table's SHM benchmark cross-section.
func (t *Table) LogSigmaP(context.Context, float64, float64, float64) (float64, error) {
	if t.logSigmaP == nil {
		return 0, fmt.Errorf("no log_sigma_p in %s table", t.id)
	}
	return *t.logSigmaP, nil
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// Register registers the halo factory.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHalo("table", &registry.RegisteredHalo{
		NewInput: func() any { return new(Input) },
		Create: func(ctx context.Context, env registry.Env, input any) (halo.Module, error) {
			in := input.(*Input)
			dir := in.DataDir
			if dir == "" {
				dir = "."
			}
			return Load(ctx, env.Resolve(dir), in.File, env.HaloDep)
		},
	})
}
