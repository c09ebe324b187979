package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Release is the release metadata document. Keys other than the three
// known ones are preserved verbatim.
type Release struct {
	CurrentVersion     int
	ReleaseNotes       string
	CreatorDataVersion int

	Extra map[string]json.RawMessage
}

// NewRelease returns the metadata used when no release file exists yet.
func NewRelease() *Release {
	return &Release{
		CurrentVersion:     1,
		ReleaseNotes:       "Initial version",
		CreatorDataVersion: 1,
	}
}

// MarshalJSON writes the known keys first, then the preserved keys sorted.
func (r Release) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		name, err := marshalCompact(key)
		if err != nil {
			return err
		}
		data, err := marshalCompact(value)
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(data)
		return nil
	}

	if err := write("current_version", r.CurrentVersion); err != nil {
		return nil, err
	}
	if err := write("release_notes", r.ReleaseNotes); err != nil {
		return nil, err
	}
	if err := write("creator_data_version", r.CreatorDataVersion); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, r.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the known keys and keeps the rest in Extra.
// Missing known keys stay at zero.
func (r *Release) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("release metadata is not a JSON object")
	}

	*r = Release{}
	for key, value := range fields {
		var err error
		switch key {
		case "current_version":
			err = decodeOptional(value, &r.CurrentVersion)
		case "release_notes":
			err = decodeOptional(value, &r.ReleaseNotes)
		case "creator_data_version":
			err = decodeOptional(value, &r.CreatorDataVersion)
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]json.RawMessage)
			}
			r.Extra[key] = value
		}
		if err != nil {
			return fmt.Errorf("decoding %s: %w", key, err)
		}
	}
	return nil
}

func decodeOptional[T any](v json.RawMessage, dst *T) error {
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil
	}
	return json.Unmarshal(v, dst)
}
