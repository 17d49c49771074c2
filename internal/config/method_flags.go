// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import "sort"

// MethodFlags toggles the steps of the EHI (extended halo-independent)
// analysis. All flags default to false.
type MethodFlags struct {
	ResponseTables               bool `yaml:"response_tables" json:"response_tables"`
	OptimalLikelihood            bool `yaml:"optimal_likelihood" json:"optimal_likelihood"`
	ImportOptimalLikelihood      bool `yaml:"import_optimal_likelihood" json:"import_optimal_likelihood"`
	ConstrainedOptimalLikelihood bool `yaml:"constrained_optimal_likelihood" json:"constrained_optimal_likelihood"`
	VminLogetaSamplingTable      bool `yaml:"vmin_logeta_sampling_table" json:"vmin_logeta_sampling_table"`
	LogLikelihoodList            bool `yaml:"loglikelihood_list" json:"loglikelihood_list"`
	ConfidenceBand               bool `yaml:"confidence_band" json:"confidence_band"`
	ConfidenceBandPlot           bool `yaml:"confidence_band_plot" json:"confidence_band_plot"`
}

func (f *MethodFlags) field(name string) *bool {
	switch name {
	case "ResponseTables", "response_tables":
		return &f.ResponseTables
	case "OptimalLikelihood", "optimal_likelihood":
		return &f.OptimalLikelihood
	case "ImportOptimalLikelihood", "import_optimal_likelihood":
		return &f.ImportOptimalLikelihood
	case "ConstrainedOptimalLikelihood", "constrained_optimal_likelihood":
		return &f.ConstrainedOptimalLikelihood
	case "VminLogetaSamplingTable", "vmin_logeta_sampling_table":
		return &f.VminLogetaSamplingTable
	case "LogLikelihoodList", "loglikelihood_list":
		return &f.LogLikelihoodList
	case "ConfidenceBand", "confidence_band":
		return &f.ConfidenceBand
	case "ConfidenceBandPlot", "confidence_band_plot":
		return &f.ConfidenceBandPlot
	}
	return nil
}

// NewMethodFlags builds MethodFlags from a name→bool map. Names may be given
// in Go or snake_case form. Unknown names are a configuration error.
func NewMethodFlags(values map[string]bool) (MethodFlags, error) {
	var f MethodFlags
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := f.field(name)
		if p == nil {
			return MethodFlags{}, configErrorf("unknown EHI method step %q", name)
		}
		*p = values[name]
	}
	return f, nil
}

// Any reports whether at least one step is enabled.
func (f MethodFlags) Any() bool {
	return f.ResponseTables || f.OptimalLikelihood || f.ImportOptimalLikelihood ||
		f.ConstrainedOptimalLikelihood || f.VminLogetaSamplingTable ||
		f.LogLikelihoodList || f.ConfidenceBand || f.ConfidenceBandPlot
}
