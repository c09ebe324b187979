package circle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FandomMapping maps a lower-cased raw fandom token to its canonical tags.
// It is built once per run and only read afterwards.
type FandomMapping map[string][]string

// Lookup returns the canonical tags for a raw token, ignoring case.
func (m FandomMapping) Lookup(token string) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	tags, ok := m[strings.ToLower(token)]
	return tags, ok
}

// add stores tags under the lower-cased key. A later key that collides
// after lower-casing replaces the earlier one.
func (m FandomMapping) add(key string, tags []string) {
	m[strings.ToLower(key)] = tags
}

// MappingFormat selects the syntax of a fandom mapping document.
type MappingFormat string

const (
	MappingJSON MappingFormat = "json"
	MappingYAML MappingFormat = "yaml"
)

// ParseFandomMapping decodes a mapping document whose values are either a
// single tag or a list of tags. Entries with any other value shape are
// skipped and returned by key so the caller can report them.
func ParseFandomMapping(data []byte, format MappingFormat) (FandomMapping, []string, error) {
	switch format {
	case MappingYAML:
		return parseYAMLMapping(data)
	case MappingJSON, "":
		return parseJSONMapping(data)
	default:
		return nil, nil, fmt.Errorf("unknown mapping format: %s", format)
	}
}

// parseJSONMapping walks the object token by token so that key collisions
// resolve in document order.
func parseJSONMapping(data []byte) (FandomMapping, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing fandom mapping: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("parsing fandom mapping: expected a JSON object")
	}

	mapping := make(FandomMapping)
	var skipped []string

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("parsing fandom mapping: %w", err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("parsing fandom mapping value for %q: %w", key, err)
		}

		tags, ok := decodeJSONTags(value)
		if !ok {
			skipped = append(skipped, key)
			continue
		}
		mapping.add(key, tags)
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("parsing fandom mapping: %w", err)
	}
	return mapping, skipped, nil
}

func decodeJSONTags(value json.RawMessage) ([]string, bool) {
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		return []string{single}, true
	}
	var many []string
	if err := json.Unmarshal(value, &many); err == nil && many != nil {
		return many, true
	}
	return nil, false
}

func parseYAMLMapping(data []byte) (FandomMapping, []string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing fandom mapping: %w", err)
	}

	mapping := make(FandomMapping)
	if len(doc.Content) == 0 {
		return mapping, nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("parsing fandom mapping: expected a YAML mapping")
	}

	var skipped []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]

		switch value.Kind {
		case yaml.ScalarNode:
			mapping.add(key, []string{value.Value})
		case yaml.SequenceNode:
			tags := make([]string, 0, len(value.Content))
			ok := true
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					ok = false
					break
				}
				tags = append(tags, item.Value)
			}
			if !ok {
				skipped = append(skipped, key)
				continue
			}
			mapping.add(key, tags)
		default:
			skipped = append(skipped, key)
		}
	}

	return mapping, skipped, nil
}
