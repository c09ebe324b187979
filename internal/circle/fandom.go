package circle

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Fandoms holds both the cleaned tokens as entered and their canonical tags.
type Fandoms struct {
	Raw       []string
	Canonical []string
}

// FandomNormalizer canonicalizes fandom fields against a mapping.
// It is not safe for concurrent use.
type FandomNormalizer struct {
	mapping  FandomMapping
	tags     map[string]string // lower-cased canonical tag -> its spelling
	collator *collate.Collator
}

// NewFandomNormalizer returns a normalizer that sorts tags ignoring case and
// accents. A nil mapping passes every token through unchanged.
//
// Tokens that are already canonical tags of the mapping keep the mapping's
// spelling, so normalizing a canonical list again returns it unchanged.
func NewFandomNormalizer(mapping FandomMapping) *FandomNormalizer {
	return &FandomNormalizer{
		mapping:  mapping,
		tags:     canonicalIndex(mapping),
		collator: collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics),
	}
}

// canonicalIndex indexes every tag of mapping by its lower-cased form.
// Keys are walked in sorted order and the first spelling seen wins.
func canonicalIndex(mapping FandomMapping) map[string]string {
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	index := make(map[string]string)
	for _, k := range keys {
		for _, tag := range mapping[k] {
			lower := strings.ToLower(strings.TrimSpace(tag))
			if lower == "" {
				continue
			}
			if _, seen := index[lower]; !seen {
				index[lower] = tag
			}
		}
	}
	return index
}

// resolve returns the canonical tags for one cleaned token.
func (n *FandomNormalizer) resolve(token string) []string {
	if tags, ok := n.mapping.Lookup(token); ok {
		return tags
	}
	if tag, ok := n.tags[strings.ToLower(token)]; ok {
		return []string{tag}
	}
	return []string{token}
}

// Normalize tokenizes the main and secondary fandom fields, removes
// duplicates, and maps the result to canonical tags.
func (n *FandomNormalizer) Normalize(main, other string) Fandoms {
	var tokens []string
	tokens = append(tokens, cleanFandoms(main)...)
	tokens = append(tokens, cleanFandoms(other)...)

	raw := dedupe(tokens)

	var mapped []string
	for _, token := range raw {
		for _, tag := range n.resolve(token) {
			if strings.TrimSpace(tag) != "" {
				mapped = append(mapped, tag)
			}
		}
	}

	canonical := dedupe(mapped)
	sort.SliceStable(canonical, func(i, j int) bool {
		return n.collator.CompareString(canonical[i], canonical[j]) < 0
	})

	return Fandoms{Raw: raw, Canonical: canonical}
}

// cleanFandoms splits a field, title-cases each token and drops
// placeholders.
func cleanFandoms(field string) []string {
	if strings.TrimSpace(field) == "" {
		return nil
	}

	var out []string
	for _, token := range SplitFandoms(field) {
		if token == "-" {
			continue
		}
		token = TitleCase(token)
		if lower := strings.ToLower(token); lower == "etc" || lower == "etc." {
			continue
		}
		out = append(out, token)
	}
	return out
}

// SplitFandoms splits on commas that are not inside parentheses and trims
// each part. Empty parts are dropped.
func SplitFandoms(text string) []string {
	var (
		parts   []string
		current strings.Builder
		depth   int
	)

	flush := func() {
		if part := strings.TrimSpace(current.String()); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}

	for _, r := range text {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()

	return parts
}

// TitleCase upper-cases the first character of every space-separated word
// and lower-cases the rest.
func TitleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
