// Package schema holds the HCL decoding targets for sweep files and halo
// data tables. The structs mirror the file layout one-to-one; translation
// into the format-agnostic config model happens in package hcl.
package schema
