// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package config defines the format-agnostic configuration model of a sweep.
//
// # Core Concepts
//
//   - Sweep: the configuration of one top-level run. It holds every sweep axis
//     (experiments, scattering types, filename tags, parameter points) and the
//     run flags. It is built once and only changed through its setters.
//
//   - Iteration: one fully-resolved sweep point plus the quantities derived for
//     it. Iterations are immutable values that the sweep engine builds and
//     passes down; they never live longer than one inner loop.
//
//   - Snapshot: the flat record handed to the computation engine. Its field set
//     is fixed and documented on the type.
//
// Concrete loaders (HCL) live in separate packages and produce a Document,
// which is the only input New needs besides a PointSource.
package config
