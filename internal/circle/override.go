package circle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrInvalidOverrides is returned when an override document has no
// "creators" list.
var ErrInvalidOverrides = errors.New("override document has no creators list")

// Patch is a curator correction for the circle with the same id. Every key
// other than "id" replaces the matching field of the record.
type Patch map[string]json.RawMessage

// ID returns the identity the patch targets.
func (p Patch) ID() json.RawMessage {
	return p["id"]
}

// replaceWhenSet lists fields that a patch only replaces when the patch
// value is set to something other than null, false, 0 or "".
var replaceWhenSet = map[string]bool{
	"profileImage": true,
	"informations": true,
	"urls":         true,
}

// FieldError records a patch value that could not be applied.
type FieldError struct {
	ID    string
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("override for %s: field %s: %v", e.ID, e.Field, e.Err)
}

// OverrideResult summarizes a merge.
type OverrideResult struct {
	Applied  []string     // ids of patched circles, once per patch
	Missing  []string     // ids that matched no circle
	Mistyped []FieldError // values kept verbatim because they do not fit the field type
}

// DecodeOverrides parses an override document of the form
// {"creators": [patch, ...]}. Entries that are not objects are ignored.
func DecodeOverrides(data []byte) ([]Patch, error) {
	var doc struct {
		Creators json.RawMessage `json:"creators"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	creators := bytes.TrimSpace(doc.Creators)
	if len(creators) == 0 || creators[0] != '[' {
		return nil, ErrInvalidOverrides
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(creators, &entries); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	patches := make([]Patch, 0, len(entries))
	for _, entry := range entries {
		var p Patch
		if err := json.Unmarshal(entry, &p); err != nil || p == nil {
			continue
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// ApplyOverrides applies patches in order to the matching circles, modifying
// them in place. When several patches target the same circle, later values
// win field by field. A patch for an unknown id is skipped.
func ApplyOverrides(circles []*Circle, patches []Patch) *OverrideResult {
	result := &OverrideResult{}

	for _, patch := range patches {
		id := patch.ID()
		target := findCircle(circles, id)
		if target == nil {
			result.Missing = append(result.Missing, IDString(id))
			continue
		}

		keys := make([]string, 0, len(patch))
		for k := range patch {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if key == "id" {
				continue
			}
			value := patch[key]
			if replaceWhenSet[key] && isFalsy(value) {
				continue
			}
			if err := target.Set(key, value); err != nil {
				result.Mistyped = append(result.Mistyped, FieldError{
					ID:    IDString(id),
					Field: key,
					Err:   err,
				})
			}
		}
		result.Applied = append(result.Applied, IDString(id))
	}

	return result
}

func findCircle(circles []*Circle, id json.RawMessage) *Circle {
	for _, c := range circles {
		if SameID(c.ID, id) {
			return c
		}
	}
	return nil
}

// isFalsy reports whether a JSON value is null, false, zero or "".
func isFalsy(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	switch {
	case len(t) == 0:
		return true
	case bytes.Equal(t, []byte("null")), bytes.Equal(t, []byte("false")), bytes.Equal(t, []byte(`""`)):
		return true
	case t[0] == '-' || (t[0] >= '0' && t[0] <= '9'):
		f, err := strconv.ParseFloat(string(t), 64)
		return err == nil && f == 0
	}
	return false
}
