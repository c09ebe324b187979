package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/circle-catalog/internal/circle"
)

const (
	DefaultSnapshotFile = "creator-data.json"
	DefaultReleaseFile  = "version.json"
)

// ErrCorruptSnapshot is returned when an existing snapshot or release file
// cannot be parsed. Existing files are never overwritten in that case.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Store handles persistence of the versioned creator snapshot and its
// release metadata.
type Store struct {
	dataDir      string
	snapshotPath string
	releasePath  string

	// writeFile is swapped in tests to simulate write failures.
	writeFile func(path string, data []byte) error
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshotFile sets the snapshot file. Relative paths are resolved
// against the data directory.
func WithSnapshotFile(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.snapshotPath = s.resolve(name)
		}
	}
}

// WithReleaseFile sets the release metadata file. Relative paths are
// resolved against the data directory.
func WithReleaseFile(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.releasePath = s.resolve(name)
		}
	}
}

// New creates a Store rooted at dataDir, creating the directory if needed.
func New(dataDir string, opts ...Option) (*Store, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{
		dataDir:   dataDir,
		writeFile: writeFileAtomic,
	}
	s.snapshotPath = s.resolve(DefaultSnapshotFile)
	s.releasePath = s.resolve(DefaultReleaseFile)

	for _, opt := range opts {
		opt(s)
	}

	for _, path := range []string{s.snapshotPath, s.releasePath} {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}

	return s, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

func (s *Store) resolve(name string) string {
	if expanded, err := ExpandHome(name); err == nil {
		name = expanded
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dataDir, name)
}

// SnapshotPath returns the path of the snapshot file.
func (s *Store) SnapshotPath() string {
	return s.snapshotPath
}

// ReleasePath returns the path of the release metadata file.
func (s *Store) ReleasePath() string {
	return s.releasePath
}

// storedSnapshot is the snapshot file with creators left undecoded, so that
// fields this program does not know still take part in comparison.
type storedSnapshot struct {
	Version  int
	Creators json.RawMessage
	raw      []byte
}

// readSnapshot loads the snapshot file. A missing file returns nil.
func (s *Store) readSnapshot() (*storedSnapshot, error) {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil || doc == nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object", ErrCorruptSnapshot, s.snapshotPath)
	}

	version, err := decodeVersion(doc["version"])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: version: %v", ErrCorruptSnapshot, s.snapshotPath, err)
	}

	return &storedSnapshot{
		Version:  version,
		Creators: doc["creators"],
		raw:      data,
	}, nil
}

// decodeVersion reads a version number. Absent, null, false and 0 all
// mean "no version".
func decodeVersion(v json.RawMessage) (int, error) {
	t := bytes.TrimSpace(v)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte("false")) {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(t, &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative version %d", n)
	}
	return n, nil
}

// LoadSnapshot reads and decodes the persisted snapshot. A missing file
// yields an empty snapshot at version 0.
func (s *Store) LoadSnapshot() (*circle.Snapshot, error) {
	stored, err := s.readSnapshot()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &circle.Snapshot{Creators: []*circle.Circle{}}, nil
	}

	snapshot := &circle.Snapshot{Version: stored.Version, Creators: []*circle.Circle{}}
	if len(bytes.TrimSpace(stored.Creators)) > 0 {
		var creators []*circle.Circle
		if err := json.Unmarshal(stored.Creators, &creators); err != nil {
			return nil, fmt.Errorf("%w: %s: creators: %v", ErrCorruptSnapshot, s.snapshotPath, err)
		}
		if creators != nil {
			snapshot.Creators = creators
		}
	}
	return snapshot, nil
}

// LoadRelease reads the release metadata. A missing file yields the
// initial release.
func (s *Store) LoadRelease() (*Release, error) {
	data, err := os.ReadFile(s.releasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRelease(), nil
		}
		return nil, fmt.Errorf("reading release metadata: %w", err)
	}

	var release Release
	if err := json.Unmarshal(data, &release); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.releasePath, err)
	}
	return &release, nil
}

// encodeJSON writes v indented by two spaces without HTML escaping.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// marshalCompact is json.Marshal without HTML escaping.
func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writeFileAtomic writes to a temporary file next to path and renames it
// into place, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}
