// Package storage provides JSON-based persistence for the creator snapshot.
//
// Two flat documents are kept in the data directory: the snapshot
// (creator-data.json) holding {version, creators}, and the release metadata
// (version.json) whose creator_data_version follows the snapshot version.
// Both are replaced by writing a temporary file and renaming it, snapshot
// first. The package also loads the read-only inputs of a run: the saved
// page state, the fandom mapping and the curator overrides.
package storage
