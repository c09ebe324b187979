package circle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Day is the normalized attendance day of a circle.
type Day string

const (
	DaySaturday Day = "SAT"
	DaySunday   Day = "SUN"
	DayBoth     Day = "BOTH"
)

// Link is a labeled social or marketplace URL.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Circle is the canonical record written to the snapshot.
//
// Known fields are typed; keys introduced by curator overrides that the
// program does not know about are kept in Extra and written after the known
// fields in sorted order.
type Circle struct {
	ID                json.RawMessage `json:"id,omitempty"`
	UserID            json.RawMessage `json:"user_id,omitempty"`
	Name              string          `json:"name"`
	Booths            []string        `json:"booths"`
	Day               Day             `json:"day"`
	URLs              []Link          `json:"urls,omitempty"`
	RawFandoms        []string        `json:"raw_fandoms,omitempty"`
	Fandoms           []string        `json:"fandoms,omitempty"`
	WorksType         []string        `json:"works_type,omitempty"`
	SampleworksImages []string        `json:"sampleworks_images"`
	CircleCut         string          `json:"circle_cut,omitempty"`
	CircleCode        string          `json:"circle_code,omitempty"`
	ProfileImage      json.RawMessage `json:"profileImage,omitempty"`
	Informations      json.RawMessage `json:"informations,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
	// Verbatim holds values for known keys that are written as given instead
	// of from the typed field: values of the wrong type and explicitly empty
	// values that omitempty would drop.
	Verbatim map[string]json.RawMessage `json:"-"`
}

// ErrFieldType is returned by Set when a value does not fit the Go type of a
// known field. The value is still stored and written verbatim.
var ErrFieldType = errors.New("value does not match the field type")

// fieldOrder is the JSON key order of the known fields.
var fieldOrder = []string{
	"id", "user_id", "name", "booths", "day", "urls", "raw_fandoms", "fandoms",
	"works_type", "sampleworks_images", "circle_cut", "circle_code",
	"profileImage", "informations",
}

// circleFields has Circle's layout without its JSON methods.
type circleFields Circle

// fieldSetters decodes a single JSON value into a known field. A null value
// resets the field to its zero value, which drops optional fields from output.
var fieldSetters = map[string]func(c *Circle, v json.RawMessage) error{
	"id":                 func(c *Circle, v json.RawMessage) error { return setField(&c.ID, v) },
	"user_id":            func(c *Circle, v json.RawMessage) error { return setField(&c.UserID, v) },
	"name":               func(c *Circle, v json.RawMessage) error { return setField(&c.Name, v) },
	"booths":             func(c *Circle, v json.RawMessage) error { return setField(&c.Booths, v) },
	"day":                func(c *Circle, v json.RawMessage) error { return setField(&c.Day, v) },
	"urls":               func(c *Circle, v json.RawMessage) error { return setField(&c.URLs, v) },
	"raw_fandoms":        func(c *Circle, v json.RawMessage) error { return setField(&c.RawFandoms, v) },
	"fandoms":            func(c *Circle, v json.RawMessage) error { return setField(&c.Fandoms, v) },
	"works_type":         func(c *Circle, v json.RawMessage) error { return setField(&c.WorksType, v) },
	"sampleworks_images": func(c *Circle, v json.RawMessage) error { return setField(&c.SampleworksImages, v) },
	"circle_cut":         func(c *Circle, v json.RawMessage) error { return setField(&c.CircleCut, v) },
	"circle_code":        func(c *Circle, v json.RawMessage) error { return setField(&c.CircleCode, v) },
	"profileImage":       func(c *Circle, v json.RawMessage) error { return setField(&c.ProfileImage, v) },
	"informations":       func(c *Circle, v json.RawMessage) error { return setField(&c.Informations, v) },
}

func setField[T any](dst *T, v json.RawMessage) error {
	var val T
	if isNull(v) {
		*dst = val
		return nil
	}
	if err := json.Unmarshal(v, &val); err != nil {
		return err
	}
	*dst = val
	return nil
}

// IsKnownField reports whether key maps to a typed Circle field.
func IsKnownField(key string) bool {
	_, ok := fieldSetters[key]
	return ok
}

// Set replaces a single field by its JSON key. Unknown keys are stored in
// Extra verbatim. A value of the wrong type for a known field clears the
// typed field, is kept in Verbatim and reported with ErrFieldType.
func (c *Circle) Set(key string, value json.RawMessage) error {
	set, ok := fieldSetters[key]
	if !ok {
		if c.Extra == nil {
			c.Extra = make(map[string]json.RawMessage)
		}
		c.Extra[key] = append(json.RawMessage(nil), value...)
		return nil
	}

	delete(c.Verbatim, key)
	if err := set(c, value); err != nil {
		_ = set(c, json.RawMessage("null"))
		c.setVerbatim(key, value)
		return fmt.Errorf("%w: decoding %s: %v", ErrFieldType, key, err)
	}
	if isEmptyValue(value) {
		c.setVerbatim(key, value)
	}
	return nil
}

func (c *Circle) setVerbatim(key string, value json.RawMessage) {
	if c.Verbatim == nil {
		c.Verbatim = make(map[string]json.RawMessage)
	}
	c.Verbatim[key] = append(json.RawMessage(nil), bytes.TrimSpace(value)...)
}

// isEmptyValue reports whether v is an empty string, array or object.
func isEmptyValue(v json.RawMessage) bool {
	switch string(bytes.TrimSpace(v)) {
	case `""`, `[]`, `{}`:
		return true
	}
	return false
}

// MarshalJSON writes known fields in declaration order, then Extra keys sorted.
func (c Circle) MarshalJSON() ([]byte, error) {
	f := circleFields(c)
	if f.Booths == nil {
		f.Booths = []string{}
	}
	if f.SampleworksImages == nil {
		f.SampleworksImages = []string{}
	}

	var enc bytes.Buffer
	encoder := json.NewEncoder(&enc)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(f); err != nil {
		return nil, err
	}
	base := bytes.TrimRight(enc.Bytes(), "\n")
	if len(c.Extra) == 0 && len(c.Verbatim) == 0 {
		return base, nil
	}

	var typed map[string]json.RawMessage
	if err := json.Unmarshal(base, &typed); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value json.RawMessage) error {
		name, err := json.Marshal(key)
		if err != nil {
			return err
		}
		if len(bytes.TrimSpace(value)) == 0 {
			value = json.RawMessage("null")
		}
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
		return nil
	}

	for _, k := range fieldOrder {
		value, ok := c.Verbatim[k]
		if !ok {
			value, ok = typed[k]
		}
		if !ok {
			continue
		}
		if err := write(k, value); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := write(k, c.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON routes every key through Set so unknown keys survive a
// round trip through Extra and mistyped known keys through Verbatim.
func (c *Circle) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	*c = Circle{}
	for _, k := range keys {
		if err := c.Set(k, fields[k]); err != nil && !errors.Is(err, ErrFieldType) {
			return err
		}
	}
	return nil
}

// SameID reports whether two identity values are the same JSON value.
func SameID(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	ca, err := Canonicalize(a)
	if err != nil {
		return false
	}
	cb, err := Canonicalize(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// IDString renders an identity value for logs and reports.
func IDString(id json.RawMessage) string {
	if len(id) == 0 {
		return "<none>"
	}
	var s string
	if err := json.Unmarshal(id, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(id))
}
