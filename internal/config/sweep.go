// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

import (
	"context"
	"fmt"
)

// EHIExperiment is the experiment that receives the extended
// halo-independent treatment.
const EHIExperiment = "CDMSSi2012"

// Sweep is the configuration of one run. It is built by New and changed only
// through its setters; the sweep engine reads it without mutating it.
type Sweep struct {
	haloDep bool

	catalog         []string
	experiments     []string
	multiExper      []string
	scatteringTypes []string
	filenameTails   []string
	points          []ParameterPoint

	source PointSource

	flags            RunFlags
	methodFlags      MethodFlags
	outputMainDir    string
	extraTail        string
	confidenceLevels []float64
	fp               float64
}

// New validates opts and builds a Sweep. src supplies the parameter-point
// list for the selected analysis mode.
func New(ctx context.Context, opts Options, src PointSource) (*Sweep, error) {
	mf, err := NewMethodFlags(opts.EHIMethod)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, configErrorf("no parameter-point source for the selected mode")
	}

	tails := opts.FilenameTails
	if tails == nil {
		tails = []string{""}
	}

	s := &Sweep{
		haloDep:          opts.HaloDep,
		catalog:          append([]string(nil), opts.Experiments...),
		filenameTails:    append([]string(nil), tails...),
		source:           src,
		flags:            opts.Flags,
		methodFlags:      mf,
		outputMainDir:    opts.OutputMainDir,
		extraTail:        opts.ExtraTail,
		confidenceLevels: MergeConfidenceLevels(opts.CLList, opts.SigmaDevList, opts.SigmaToCL),
		fp:               1,
	}

	if err := s.SetExperimentSelection(opts.ExperimentSelector); err != nil {
		return nil, fmt.Errorf("experiment selection: %w", err)
	}
	s.SetScatteringTypes(opts.ScatteringTypes)
	if err := s.SetParameterPoints(ctx, opts.InputSelector); err != nil {
		return nil, fmt.Errorf("parameter points: %w", err)
	}
	if s.flags.MultiExper {
		if err := s.SetMultiExperSelection(opts.MultiExperSelector); err != nil {
			return nil, fmt.Errorf("multi-experiment selection: %w", err)
		}
	}
	return s, nil
}

// SetExperimentSelection re-derives the active experiments from the catalog.
func (s *Sweep) SetExperimentSelection(sel Selector) error {
	exps, err := Select(sel, s.catalog)
	if err != nil {
		return err
	}
	s.experiments = exps
	return nil
}

// SetMultiExperSelection re-derives the experiments combined by the
// multi-experiment pass.
func (s *Sweep) SetMultiExperSelection(sel Selector) error {
	exps, err := Select(sel, s.catalog)
	if err != nil {
		return err
	}
	s.multiExper = exps
	return nil
}

// SetScatteringTypes stores the scattering types, always as a list.
func (s *Sweep) SetScatteringTypes(sel ScatteringSelector) {
	s.scatteringTypes = sel.List()
}

// SetParameterPoints reloads the point list from the point source and
// applies sel to it.
func (s *Sweep) SetParameterPoints(ctx context.Context, sel Selector) error {
	all, err := s.source.ParameterPointList(ctx)
	if err != nil {
		return fmt.Errorf("loading parameter points: %w", err)
	}
	pts, err := Select(sel, all)
	if err != nil {
		return err
	}
	s.points = pts
	return nil
}

func (s *Sweep) HaloDep() bool { return s.haloDep }

// Catalog returns the implemented-experiment catalog.
func (s *Sweep) Catalog() []string { return append([]string(nil), s.catalog...) }

// Experiments returns the active experiments.
func (s *Sweep) Experiments() []string { return append([]string(nil), s.experiments...) }

// MultiExperInput returns the experiments combined by the multi-experiment pass.
func (s *Sweep) MultiExperInput() []string { return append([]string(nil), s.multiExper...) }

func (s *Sweep) ScatteringTypes() []string { return append([]string(nil), s.scatteringTypes...) }

func (s *Sweep) FilenameTails() []string { return append([]string(nil), s.filenameTails...) }

func (s *Sweep) ParameterPoints() []ParameterPoint {
	return append([]ParameterPoint(nil), s.points...)
}

func (s *Sweep) Flags() RunFlags { return s.flags }

func (s *Sweep) MethodFlags() MethodFlags { return s.methodFlags }

func (s *Sweep) OutputMainDir() string { return s.outputMainDir }

func (s *Sweep) ExtraTail() string { return s.extraTail }

// Fp is the proton coupling; couplings are expressed relative to it.
func (s *Sweep) Fp() float64 { return s.fp }

// ConfidenceLevels returns the merged, ascending confidence levels.
func (s *Sweep) ConfidenceLevels() []float64 {
	return append([]float64(nil), s.confidenceLevels...)
}
