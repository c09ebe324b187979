// Package cli implements the command-line interface for circle-catalog.
//
// The cli package provides the Cobra-based commands that drive a catalog run:
// fetch saves the catalog page and its embedded state, process turns a saved
// state into the published snapshot, run does both, and report summarizes the
// snapshot on disk. Results are printed as text or JSON and the exit code is 2
// when a new snapshot version was written.
package cli
