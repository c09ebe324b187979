package circle

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawCircle is an exhibitor entry exactly as it appears in the page state.
// Values are kept undecoded so a field of the wrong type reads as absent
// instead of failing the whole document.
type RawCircle map[string]json.RawMessage

// PageState is the subset of the page's initial state that holds the listing.
type PageState struct {
	Circle *struct {
		AllCircle []RawCircle `json:"allCircle"`
	} `json:"circle"`
}

// ParsePageState decodes the initial-state JSON. A missing circle.allCircle
// list is not an error; Circles reports it as empty.
func ParsePageState(data []byte) (*PageState, error) {
	var state PageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing page state: %w", err)
	}
	return &state, nil
}

// Circles returns the raw listing and whether the expected structure was present.
func (p *PageState) Circles() ([]RawCircle, bool) {
	if p == nil || p.Circle == nil || p.Circle.AllCircle == nil {
		return nil, false
	}
	return p.Circle.AllCircle, true
}

// Raw returns the undecoded value for key, or nil when absent or null.
func (r RawCircle) Raw(key string) json.RawMessage {
	v, ok := r[key]
	if !ok || isNull(v) {
		return nil
	}
	return v
}

// String returns the value for key if it is a JSON string, otherwise "".
func (r RawCircle) String(key string) string {
	v := r.Raw(key)
	if len(v) == 0 || v[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// Bool reports whether the value for key is exactly JSON true.
func (r RawCircle) Bool(key string) bool {
	return bytes.Equal(bytes.TrimSpace(r.Raw(key)), []byte("true"))
}

// List returns the elements of the value for key if it is a JSON array.
// The second result is false for anything that is not an array.
func (r RawCircle) List(key string) ([]json.RawMessage, bool) {
	v := bytes.TrimSpace(r.Raw(key))
	if len(v) == 0 || v[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, false
	}
	return items, true
}

func isNull(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
