// Package metrics defines the Prometheus collectors of a catalog run and
// exports them to a textfile for node_exporter.
package metrics
