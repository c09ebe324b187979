package storage

import (
	"errors"
	"fmt"

	"github.com/pfrederiksen/circle-catalog/internal/circle"
)

// Status reports what Reconcile did.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
)

// Result describes the outcome of a reconcile.
type Result struct {
	Status          Status
	Version         int // version of the snapshot on disk afterwards
	PreviousVersion int
	Creators        int
	Diff            *circle.DiffResult
}

// Updated reports whether new files were written.
func (r *Result) Updated() bool {
	return r.Status == StatusUpdated
}

// Reconcile compares creators with the persisted snapshot. When they differ
// it writes the snapshot at the next version and then syncs the release
// metadata; otherwise nothing is written.
//
// If the metadata write fails the previous snapshot is put back and the
// error is returned, so the metadata never points at a missing version.
func (s *Store) Reconcile(creators []*circle.Circle) (*Result, error) {
	if creators == nil {
		creators = []*circle.Circle{}
	}

	previous, err := s.readSnapshot()
	if err != nil {
		return nil, err
	}
	release, err := s.LoadRelease()
	if err != nil {
		return nil, err
	}

	result := &Result{Creators: len(creators)}

	var prevCreators []byte
	if previous != nil {
		result.PreviousVersion = previous.Version
		prevCreators = previous.Creators
	}

	diff, err := circle.Diff(prevCreators, creators)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.snapshotPath, err)
	}
	result.Diff = diff

	if !diff.Changed {
		result.Status = StatusUnchanged
		result.Version = result.PreviousVersion
		return result, nil
	}

	next := result.PreviousVersion + 1
	snapshotData, err := encodeJSON(circle.Snapshot{Version: next, Creators: creators})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	release.CreatorDataVersion = next
	releaseData, err := encodeJSON(release)
	if err != nil {
		return nil, fmt.Errorf("encoding release metadata: %w", err)
	}

	if err := s.writeFile(s.snapshotPath, snapshotData); err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}

	if err := s.writeFile(s.releasePath, releaseData); err != nil {
		err = fmt.Errorf("writing release metadata: %w", err)
		if rerr := s.restoreSnapshot(previous); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restoring snapshot: %w", rerr))
		}
		return nil, err
	}

	result.Status = StatusUpdated
	result.Version = next
	return result, nil
}

// restoreSnapshot puts back the snapshot file as it was before Reconcile.
func (s *Store) restoreSnapshot(previous *storedSnapshot) error {
	if previous == nil {
		return removeFile(s.snapshotPath)
	}
	return s.writeFile(s.snapshotPath, previous.raw)
}
