package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Sweep Definition Structures ---

// Sweep represents the `sweep` block of a sweep file. Attributes whose
// absence must be told apart from an empty value are pointers; attributes
// that accept more than one shape are kept as raw expressions and resolved
// by the loader.
type Sweep struct {
	HaloDep     bool     `hcl:"halo_dep,optional"`
	Experiments []string `hcl:"experiments"`

	// Selectors: a list of indices, a single index, a "start:stop:step"
	// string, or "all".
	ExperIndices      hcl.Expression `hcl:"exper_indices,optional"`
	InputIndices      hcl.Expression `hcl:"input_indices,optional"`
	MultiExperIndices hcl.Expression `hcl:"multiexper_indices,optional"`

	// ScatteringType is a string or a list of strings.
	ScatteringType hcl.Expression `hcl:"scattering_type,optional"`

	FilenameTails *[]string `hcl:"filename_tails,optional"`
	ExtraTail     string    `hcl:"extra_tail,optional"`
	OutputMainDir *string   `hcl:"output_main_dir,optional"`

	CLList       *[]float64 `hcl:"cl_list,optional"`
	SigmaDevList *[]float64 `hcl:"sigma_dev_list,optional"`

	RunProgram       bool `hcl:"run_program,optional"`
	MakeRegions      bool `hcl:"make_regions,optional"`
	MakeCrosses      bool `hcl:"make_crosses,optional"`
	MakeLimits       bool `hcl:"make_limits,optional"`
	MakePlot         bool `hcl:"make_plot,optional"`
	MultiExper       bool `hcl:"multiexper,optional"`
	MultiLoglikelist bool `hcl:"multi_loglikelist,optional"`
	GenerateMC       bool `hcl:"generate_mc,optional"`
	PlotDots         bool `hcl:"plot_dots,optional"`

	EHIMethod map[string]bool `hcl:"ehi_method,optional"`

	ExportPlot bool      `hcl:"export_plot,optional"`
	XLim       []float64 `hcl:"xlim,optional"`
	YLim       []float64 `hcl:"ylim,optional"`
}

// Backend represents a collaborator selection block such as
// `engine "command" { ... }`. Its body is decoded later by the registered
// factory for that backend type.
type Backend struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

// Quenching overrides the quenching calibration of one experiment token.
type Quenching struct {
	Token  string    `hcl:"token,label"`
	Values []float64 `hcl:"values"`
}

// File represents the top-level structure of a single sweep file.
type File struct {
	Sweep     *Sweep       `hcl:"sweep,block"`
	Engines   []*Backend   `hcl:"engine,block"`
	Plots     []*Backend   `hcl:"plot,block"`
	Halos     []*Backend   `hcl:"halo,block"`
	Ledgers   []*Backend   `hcl:"ledger,block"`
	Quenching []*Quenching `hcl:"quenching,block"`
	Body      hcl.Body     `hcl:",remain"`
}

// --- Halo Table Structures ---

// MassRange is a `mass_range "<experiment>"` block of a halo-dependent table.
type MassRange struct {
	Exper string    `hcl:"exper,label"`
	Range []float64 `hcl:"range"`
}

// VminEntry is a `vmin "<experiment>"` block of a halo table.
type VminEntry struct {
	Exper       string    `hcl:"exper,label"`
	Range       []float64 `hcl:"range"`
	EHIBand     []float64 `hcl:"ehi_band,optional"`
	Steepness   []float64 `hcl:"steepness,optional"`
	LogetaGuess *float64  `hcl:"logeta_guess,optional"`
}

// HaloTable represents a halo data file (halo_dep.hcl or halo_indep.hcl).
type HaloTable struct {
	Points             [][]float64  `hcl:"points"`
	LogetaPercentRange []float64    `hcl:"logeta_percent_range,optional"`
	LogSigmaP          *float64     `hcl:"log_sigma_p,optional"`
	DefaultVmin        []float64    `hcl:"default_vmin,optional"`
	MassRanges         []*MassRange `hcl:"mass_range,block"`
	Vmin               []*VminEntry `hcl:"vmin,block"`
	Body               hcl.Body     `hcl:",remain"`
}
