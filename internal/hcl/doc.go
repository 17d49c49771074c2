// Package hcl provides the concrete HCL implementation of config.Loader.
// It is responsible for file discovery and parsing, translating the schema
// structs into the format-agnostic config.Document, and decoding backend
// bodies into module input structs.
package hcl
