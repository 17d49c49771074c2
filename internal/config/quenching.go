// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import "encoding/json"

// Quenching is one aligned calibration tuple: one optional quenching factor
// per token of an experiment name. A nil factor means the token has no known
// calibration.
type Quenching struct {
	factors []*float64
}

// NewQuenching builds a tuple from the given factors.
func NewQuenching(factors ...*float64) Quenching {
	return Quenching{factors: append([]*float64(nil), factors...)}
}

// Factor returns a pointer to v, for building tuples.
func Factor(v float64) *float64 { return &v }

// Len is the tuple length.
func (q Quenching) Len() int { return len(q.factors) }

// Factors returns a copy of the tuple.
func (q Quenching) Factors() []*float64 {
	return append([]*float64(nil), q.factors...)
}

// First returns the factor of the first token, or nil.
func (q Quenching) First() *float64 {
	if len(q.factors) == 0 {
		return nil
	}
	return q.factors[0]
}

// Collapse returns the value passed to the engine: a scalar when the tuple
// has exactly one element, the tuple otherwise.
func (q Quenching) Collapse() QuenchingValue {
	return QuenchingValue{factors: q.Factors()}
}

// QuenchingValue is the engine-facing form of a Quenching tuple. It
// serializes as a scalar (or null) for single-token names and as a list
// otherwise.
type QuenchingValue struct {
	factors []*float64
}

// ScalarQuenching builds a single-token value.
func ScalarQuenching(v float64) QuenchingValue {
	return QuenchingValue{factors: []*float64{&v}}
}

// Scalar returns the scalar form and true when the value has exactly one
// element.
func (v QuenchingValue) Scalar() (*float64, bool) {
	if len(v.factors) != 1 {
		return nil, false
	}
	return v.factors[0], true
}

// Tuple returns every element.
func (v QuenchingValue) Tuple() []*float64 {
	return append([]*float64(nil), v.factors...)
}

func (v QuenchingValue) wire() any {
	if s, ok := v.Scalar(); ok {
		return s
	}
	return v.factors
}

// MarshalYAML implements yaml.Marshaler.
func (v QuenchingValue) MarshalYAML() (any, error) { return v.wire(), nil }

// MarshalJSON implements json.Marshaler.
func (v QuenchingValue) MarshalJSON() ([]byte, error) { return json.Marshal(v.wire()) }

// Equal reports whether both values hold the same factors.
func (v QuenchingValue) Equal(o QuenchingValue) bool {
	return factorsEqual(v.factors, o.factors)
}

// Equal reports whether both tuples hold the same factors.
func (q Quenching) Equal(o Quenching) bool {
	return factorsEqual(q.factors, o.factors)
}

func factorsEqual(a, b []*float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch {
		case a[i] == nil && b[i] == nil:
		case a[i] == nil || b[i] == nil:
			return false
		case *a[i] != *b[i]:
			return false
		}
	}
	return true
}
