// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import (
	"fmt"
	"strconv"
	"strings"
)

type selectorKind int

const (
	selectAll selectorKind = iota
	selectIndices
	selectSlice
)

// Selector picks a subset of an ordered list. The zero value selects
// everything.
type Selector struct {
	kind    selectorKind
	indices []int
	start   *int
	stop    *int
	step    int
}

// All selects every element.
func All() Selector { return Selector{} }

// Indices selects explicit positions. Negative positions count from the end.
func Indices(idx ...int) Selector {
	return Selector{kind: selectIndices, indices: append([]int(nil), idx...)}
}

// Slice selects start:stop:step with the usual half-open, clamped semantics.
// A nil bound means "from the beginning" (or end, for negative steps).
func Slice(start, stop *int, step int) Selector {
	return Selector{kind: selectSlice, start: start, stop: stop, step: step}
}

// ParseSlice parses "start:stop" or "start:stop:step". Empty parts are
// open bounds; an empty step is 1.
func ParseSlice(s string) (Selector, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Selector{}, configErrorf("slice %q must have the form start:stop[:step]", s)
	}
	bound := func(p string) (*int, error) {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, configErrorf("slice %q: bad bound %q", s, p)
		}
		return &v, nil
	}
	start, err := bound(parts[0])
	if err != nil {
		return Selector{}, err
	}
	stop, err := bound(parts[1])
	if err != nil {
		return Selector{}, err
	}
	step := 1
	if len(parts) == 3 {
		st, err := bound(parts[2])
		if err != nil {
			return Selector{}, err
		}
		if st != nil {
			step = *st
		}
	}
	if step == 0 {
		return Selector{}, configErrorf("slice %q: step must not be zero", s)
	}
	return Slice(start, stop, step), nil
}

// IsAll reports whether the selector selects every element.
func (s Selector) IsAll() bool { return s.kind == selectAll }

func (s Selector) String() string {
	switch s.kind {
	case selectIndices:
		parts := make([]string, len(s.indices))
		for i, v := range s.indices {
			parts[i] = strconv.Itoa(v)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case selectSlice:
		b := func(p *int) string {
			if p == nil {
				return ""
			}
			return strconv.Itoa(*p)
		}
		return fmt.Sprintf("%s:%s:%d", b(s.start), b(s.stop), s.step)
	default:
		return "all"
	}
}

// positions resolves the selector against a list of length n.
func (s Selector) positions(n int) ([]int, error) {
	switch s.kind {
	case selectAll:
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil

	case selectIndices:
		out := make([]int, 0, len(s.indices))
		for _, i := range s.indices {
			j := i
			if j < 0 {
				j += n
			}
			if j < 0 || j >= n {
				return nil, configErrorf("index %d out of range for %d items", i, n)
			}
			out = append(out, j)
		}
		return out, nil

	case selectSlice:
		if s.step == 0 {
			return nil, configErrorf("slice step must not be zero")
		}
		var start, stop int
		if s.step > 0 {
			start, stop = 0, n
		} else {
			start, stop = n-1, -1
		}
		if s.start != nil {
			start = clampBound(*s.start, n, s.step)
		}
		if s.stop != nil {
			stop = clampBound(*s.stop, n, s.step)
		}
		var out []int
		for i := start; (s.step > 0 && i < stop) || (s.step < 0 && i > stop); i += s.step {
			out = append(out, i)
		}
		return out, nil
	}
	return nil, configErrorf("unrecognized selector")
}

func clampBound(v, n, step int) int {
	if v < 0 {
		v += n
		if v < 0 {
			if step < 0 {
				return -1
			}
			return 0
		}
	}
	if v >= n {
		if step < 0 {
			return n - 1
		}
		return n
	}
	return v
}

// Select applies s to items and returns a new slice. items is not modified.
func Select[T any](s Selector, items []T) ([]T, error) {
	pos, err := s.positions(len(items))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(pos))
	for _, p := range pos {
		out = append(out, items[p])
	}
	return out, nil
}
