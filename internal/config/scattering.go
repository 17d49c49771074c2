// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

// ScatteringSelector is either a single scattering type or an ordered list of
// them. Both forms resolve to a list.
type ScatteringSelector struct {
	types  []string
	isList bool
}

// OneScatteringType selects a single scattering type.
func OneScatteringType(t string) ScatteringSelector {
	return ScatteringSelector{types: []string{t}}
}

// ScatteringTypes selects an ordered list of scattering types.
func ScatteringTypes(ts ...string) ScatteringSelector {
	return ScatteringSelector{types: append([]string(nil), ts...), isList: true}
}

// IsList reports whether the selector was given in list form.
func (s ScatteringSelector) IsList() bool { return s.isList }

// List returns the scattering types in order.
func (s ScatteringSelector) List() []string {
	return append([]string(nil), s.types...)
}
