// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

// Snapshot is the flat record handed to the computation engine for one
// call. It deliberately omits the sweep axes (catalog, active experiments,
// scattering types, filename tags, parameter points) and the quenching table.
type Snapshot struct {
	HaloDep        bool   `yaml:"halo_dep" json:"halo_dep"`
	ExperName      string `yaml:"exper_name" json:"exper_name"`
	ScatteringType string `yaml:"scattering_type" json:"scattering_type"`
	FilenameTail   string `yaml:"filename_tail" json:"filename_tail"`
	ExtraTail      string `yaml:"extra_tail" json:"extra_tail"`
	OutputMainDir  string `yaml:"output_main_dir" json:"output_main_dir"`

	Mx    *float64 `yaml:"mx,omitempty" json:"mx,omitempty"`
	Fn    float64  `yaml:"fn" json:"fn"`
	Fp    float64  `yaml:"fp" json:"fp"`
	Delta float64  `yaml:"delta" json:"delta"`
	MPhi  float64  `yaml:"mPhi" json:"mPhi"`

	Quenching QuenchingValue `yaml:"quenching" json:"quenching"`

	MxRange                   []float64 `yaml:"mx_range,omitempty" json:"mx_range,omitempty"`
	VminRange                 []float64 `yaml:"vmin_range,omitempty" json:"vmin_range,omitempty"`
	VminEHIBandRange          []float64 `yaml:"vmin_EHIBand_range,omitempty" json:"vmin_EHIBand_range,omitempty"`
	LogetaEHIBandPercentRange []float64 `yaml:"logeta_percent_minus_plus,omitempty" json:"logeta_percent_minus_plus,omitempty"`
	Steepness                 []float64 `yaml:"steepness,omitempty" json:"steepness,omitempty"`
	LogetaGuess               *float64  `yaml:"logeta_guess,omitempty" json:"logeta_guess,omitempty"`
	LogSigmaP                 *float64  `yaml:"log_sigma_p,omitempty" json:"log_sigma_p,omitempty"`

	Flags     RunFlags    `yaml:"flags" json:"flags"`
	EHIMethod MethodFlags `yaml:"ehi_method" json:"ehi_method"`

	ConfidenceLevels []float64 `yaml:"confidence_levels" json:"confidence_levels"`
	MultiExperInput  []string  `yaml:"multiexper_input,omitempty" json:"multiexper_input,omitempty"`
}

// Snapshot combines the static sweep settings with the iteration state.
func (s *Sweep) Snapshot(it Iteration) Snapshot {
	snap := Snapshot{
		HaloDep:        s.haloDep,
		ExperName:      it.ExperName,
		ScatteringType: it.ScatteringType,
		FilenameTail:   it.FilenameTail,
		ExtraTail:      s.extraTail,
		OutputMainDir:  s.outputMainDir,

		Fn:    it.Point.Fn,
		Fp:    s.fp,
		Delta: it.Point.Delta,
		MPhi:  it.Point.MPhi,

		Quenching: it.Quenching,

		MxRange:                   cloneFloats(it.Derived.MxRange),
		VminRange:                 cloneFloats(it.Derived.VminRange),
		VminEHIBandRange:          cloneFloats(it.Derived.VminEHIBandRange),
		LogetaEHIBandPercentRange: cloneFloats(it.Derived.LogetaEHIBandPercentRange),
		Steepness:                 cloneFloats(it.Derived.Steepness),
		LogetaGuess:               cloneFloat(it.Derived.LogetaGuess),
		LogSigmaP:                 cloneFloat(it.Derived.LogSigmaP),

		Flags:     s.flags,
		EHIMethod: s.methodFlags,

		ConfidenceLevels: s.ConfidenceLevels(),
	}
	if !s.haloDep {
		snap.Mx = cloneFloat(&it.Point.Mx)
	}
	if s.flags.MultiExper {
		snap.MultiExperInput = s.MultiExperInput()
	}
	return snap
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
