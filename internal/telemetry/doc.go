// Package telemetry wires OpenTelemetry tracing for pipeline runs.
//
// Each stage of a run (fetch, extract, assemble, overrides, reconcile) is
// a span under one root span. Tracing is off unless the configured
// exporter is "stdout".
package telemetry
