// Package registry provides the central "glue" for the module system.
//
// The Registry stores mappings between the backend type names used in sweep
// files (e.g., `engine "command"`) and the compiled Go factories that build
// the matching collaborator. Each factory pairs a NewInput constructor, whose
// result the HCL layer decodes the backend block into, with a Create function
// that turns the decoded input into a live implementation.
//
// During application startup the registry is populated by every compiled-in
// module and then consulted to resolve the backends a sweep file selects,
// failing fast when a file names a backend no module provides.
package registry
