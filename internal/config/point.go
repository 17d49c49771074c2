// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

// ParameterPoint is one physics parameter set. Mx is only meaningful in
// halo-independent mode; halo-dependent points scan the mass instead.
type ParameterPoint struct {
	Mx    float64 `yaml:"mx,omitempty" json:"mx,omitempty"`
	Fn    float64 `yaml:"fn" json:"fn"`
	Delta float64 `yaml:"delta" json:"delta"`
	MPhi  float64 `yaml:"mPhi" json:"mPhi"`
}

// NewParameterPoint builds a point from a numeric tuple: (mx, fn, delta, mPhi)
// in halo-independent mode, (fn, delta, mPhi) in halo-dependent mode.
func NewParameterPoint(haloDep bool, tuple []float64) (ParameterPoint, error) {
	if haloDep {
		if len(tuple) != 3 {
			return ParameterPoint{}, configErrorf("halo-dependent point needs (fn, delta, mPhi), got %d values", len(tuple))
		}
		return ParameterPoint{Fn: tuple[0], Delta: tuple[1], MPhi: tuple[2]}, nil
	}
	if len(tuple) != 4 {
		return ParameterPoint{}, configErrorf("halo-independent point needs (mx, fn, delta, mPhi), got %d values", len(tuple))
	}
	return ParameterPoint{Mx: tuple[0], Fn: tuple[1], Delta: tuple[2], MPhi: tuple[3]}, nil
}
