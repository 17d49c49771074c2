// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import (
	"math"
	"sort"
)

// SigmaToConfidenceLevel converts a deviation in standard deviations to the
// two-sided Gaussian confidence level.
func SigmaToConfidenceLevel(sigma float64) float64 {
	return math.Erf(sigma / math.Sqrt2)
}

// MergeConfidenceLevels returns cl followed by the converted sigmas, sorted
// ascending. Duplicates are kept. A nil conv uses SigmaToConfidenceLevel.
func MergeConfidenceLevels(cl, sigmas []float64, conv func(float64) float64) []float64 {
	if conv == nil {
		conv = SigmaToConfidenceLevel
	}
	out := make([]float64, 0, len(cl)+len(sigmas))
	out = append(out, cl...)
	for _, s := range sigmas {
		out = append(out, conv(s))
	}
	sort.Float64s(out)
	return out
}
