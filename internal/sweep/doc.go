// Package sweep runs the nested parameter sweep.
//
// Loop order is fixed: scattering type → filename tag → parameter point →
// experiment → quenching candidate. Each innermost step builds an immutable
// config.Iteration, snapshots it and hands it to the invocation adapter.
// Plots are rendered once per outer group.
//
// The engine is single-threaded: every engine call completes before the
// next one starts, and collaborators are never called concurrently.
// Recoverable failures (no mass range, missing artifact) are collected in
// the Report; everything else aborts the run.
package sweep
