// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import "github.com/hashicorp/hcl/v2"

// Document is the format-agnostic result of loading a sweep definition.
type Document struct {
	Sweep Options
	Plot  PlotOptions

	// Backend selections. A nil backend means "use the built-in default".
	Engine  *Backend
	Plotter *Backend
	Halo    *Backend
	Ledger  *Backend

	// Quenching overrides keyed by experiment-name token.
	Quenching map[string][]float64

	// Files lists every file that contributed to the document.
	Files []string
}

// Backend names a registered collaborator implementation and carries its
// still-undecoded settings.
type Backend struct {
	Type string
	Body hcl.Body
}

// Limits is a closed axis range.
type Limits struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// PlotOptions controls the plot orchestration at iteration boundaries.
type PlotOptions struct {
	Export bool
	XLim   *Limits
	YLim   *Limits
}

// RunFlags are the boolean switches of a sweep. They are copied verbatim
// into every snapshot.
type RunFlags struct {
	RunProgram       bool `yaml:"run_program" json:"run_program"`
	MakeRegions      bool `yaml:"make_regions" json:"make_regions"`
	MakeCrosses      bool `yaml:"make_crosses" json:"make_crosses"`
	MakeLimits       bool `yaml:"make_limits" json:"make_limits"`
	MakePlot         bool `yaml:"make_plot" json:"make_plot"`
	MultiExper       bool `yaml:"multiexper" json:"multiexper"`
	MultiLoglikelist bool `yaml:"multi_loglikelist" json:"multi_loglikelist"`
	GenerateMC       bool `yaml:"generate_mc" json:"generate_mc"`
	PlotDots         bool `yaml:"plot_dots" json:"plot_dots"`
}

// Options is everything needed to construct a Sweep.
type Options struct {
	HaloDep bool

	// Experiments is the implemented-experiment catalog.
	Experiments        []string
	ExperimentSelector Selector
	InputSelector      Selector
	MultiExperSelector Selector

	ScatteringTypes ScatteringSelector
	Flags           RunFlags
	EHIMethod       map[string]bool

	OutputMainDir string
	FilenameTails []string
	ExtraTail     string

	CLList       []float64
	SigmaDevList []float64
	// SigmaToCL overrides the sigma conversion; nil uses SigmaToConfidenceLevel.
	SigmaToCL func(float64) float64
}

// DefaultOptions returns the defaults of a sweep definition.
func DefaultOptions() Options {
	return Options{
		ScatteringTypes: OneScatteringType("SI"),
		OutputMainDir:   "../Output/",
		FilenameTails:   []string{""},
		CLList:          []float64{0.9},
		SigmaDevList:    []float64{1},
	}
}
