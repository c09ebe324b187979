package circle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Snapshot is the persisted, versioned collection of canonical records.
type Snapshot struct {
	Version  int       `json:"version"`
	Creators []*Circle `json:"creators"`
}

// DiffResult describes how a freshly assembled collection relates to the
// previously persisted one.
type DiffResult struct {
	Changed  bool
	Added    []string // ids present only in the new collection
	Removed  []string // ids present only in the previous collection
	Modified []string // ids present in both with different content
}

// Canonicalize re-encodes a JSON document with object keys sorted and
// insignificant whitespace removed. Numbers are kept as written; array
// order is preserved.
func Canonicalize(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding: trailing data after JSON value")
	}

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	return bytes.TrimRight(out.Bytes(), "\n"), nil
}

// CanonicalCreators returns the canonical serialization of a collection.
func CanonicalCreators(circles []*Circle) ([]byte, error) {
	if circles == nil {
		circles = []*Circle{}
	}
	data, err := json.Marshal(circles)
	if err != nil {
		return nil, fmt.Errorf("encoding creators: %w", err)
	}
	return Canonicalize(data)
}

// Diff compares the new collection against the previous creators array,
// given as raw JSON. A missing or null previous array always counts as a
// change. Only Changed drives versioning; the id lists are informational.
func Diff(previous json.RawMessage, current []*Circle) (*DiffResult, error) {
	result := &DiffResult{}

	cur, err := CanonicalCreators(current)
	if err != nil {
		return nil, err
	}

	if isNull(previous) {
		result.Changed = true
		for _, c := range current {
			result.Added = append(result.Added, IDString(c.ID))
		}
		return result, nil
	}

	prev, err := Canonicalize(previous)
	if err != nil {
		return nil, fmt.Errorf("previous creators: %w", err)
	}
	result.Changed = !bytes.Equal(prev, cur)
	if !result.Changed {
		return result, nil
	}

	var prevItems []json.RawMessage
	if err := json.Unmarshal(previous, &prevItems); err != nil {
		// Not an array; every current record is new.
		for _, c := range current {
			result.Added = append(result.Added, IDString(c.ID))
		}
		return result, nil
	}

	prevByID := make(map[string][]byte, len(prevItems))
	prevLabel := make(map[string]string, len(prevItems))
	prevOrder := make([]string, 0, len(prevItems))
	for _, item := range prevItems {
		var head struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			continue
		}
		key := idKey(head.ID)
		canon, err := Canonicalize(item)
		if err != nil {
			continue
		}
		if _, dup := prevByID[key]; !dup {
			prevOrder = append(prevOrder, key)
			prevLabel[key] = IDString(head.ID)
		}
		prevByID[key] = canon
	}

	seen := make(map[string]bool, len(current))
	for _, c := range current {
		key := idKey(c.ID)
		label := IDString(c.ID)
		seen[key] = true

		data, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("encoding circle %s: %w", label, err)
		}
		canon, err := Canonicalize(data)
		if err != nil {
			return nil, err
		}

		old, ok := prevByID[key]
		switch {
		case !ok:
			result.Added = append(result.Added, label)
		case !bytes.Equal(old, canon):
			result.Modified = append(result.Modified, label)
		}
	}

	for _, key := range prevOrder {
		if !seen[key] {
			result.Removed = append(result.Removed, prevLabel[key])
		}
	}

	return result, nil
}

// idKey matches identities by JSON value, so 1 and "1" stay distinct.
func idKey(id json.RawMessage) string {
	if len(id) == 0 {
		return IDString(id)
	}
	canon, err := Canonicalize(id)
	if err != nil {
		return IDString(id)
	}
	return string(canon)
}
