// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for a sweep run. Both are optional: a nil *Metrics records
// nothing, and a Tracer without an endpoint is a no-op.
package observability
