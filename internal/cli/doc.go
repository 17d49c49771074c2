// Package cli turns command-line arguments into an app.Config and maps run
// errors to process exit codes. Configuration errors exit with 2, every
// other failure with 1.
package cli
