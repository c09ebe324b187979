package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/circle-catalog/internal/circle"
)

// LoadFandomMapping reads a fandom mapping file. Files ending in .yaml or
// .yml are parsed as YAML, anything else as JSON. The second result lists
// keys whose value was neither a string nor a list of strings.
//
// A missing file returns an error matching os.ErrNotExist; callers treat
// that as an empty mapping.
func LoadFandomMapping(path string) (circle.FandomMapping, []string, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading fandom mapping: %w", err)
	}

	mapping, skipped, err := circle.ParseFandomMapping(data, mappingFormat(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return mapping, skipped, nil
}

func mappingFormat(path string) circle.MappingFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return circle.MappingYAML
	default:
		return circle.MappingJSON
	}
}

// LoadOverrides reads a curator override file of the form
// {"creators": [...]}. A missing file returns an error matching
// os.ErrNotExist.
func LoadOverrides(path string) ([]circle.Patch, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}

	patches, err := circle.DecodeOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patches, nil
}

// ReadFile reads an input document such as the saved page state.
func ReadFile(path string) ([]byte, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes a scratch document, such as the fetched page, creating
// parent directories as needed.
func WriteFile(path string, data []byte) error {
	path, err := ExpandHome(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
