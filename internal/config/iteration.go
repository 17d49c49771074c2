// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package config

// Iteration is the state of one sweep point. It is a value: the With*
// methods return modified copies and never touch the receiver.
type Iteration struct {
	ScatteringType string
	FilenameTail   string
	Point          ParameterPoint
	ExperName      string
	Quenching      QuenchingValue
	Derived        Derived
}

// Derived holds quantities computed per iteration by the halo module.
// Unset fields are nil.
type Derived struct {
	MxRange                   []float64
	VminRange                 []float64
	VminEHIBandRange          []float64
	LogetaEHIBandPercentRange []float64
	Steepness                 []float64
	LogetaGuess               *float64
	LogSigmaP                 *float64
}

func (it Iteration) WithExperiment(name string) Iteration {
	it.ExperName = name
	return it
}

func (it Iteration) WithQuenching(q QuenchingValue) Iteration {
	it.Quenching = q
	return it
}

func (it Iteration) WithDerived(d Derived) Iteration {
	it.Derived = d
	return it
}
