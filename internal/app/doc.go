// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: loading the sweep file,
// building the selected backends from the registry, and driving the sweep
// engine, decoupled from any specific entrypoint like a CLI.
package app
