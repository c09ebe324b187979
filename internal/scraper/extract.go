package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrStateNotFound is returned when no known initial-state assignment
	// appears in the page.
	ErrStateNotFound = errors.New("initial state not found")
	// ErrInvalidState is returned when an assignment is found but its value
	// is not valid JSON.
	ErrInvalidState = errors.New("initial state is not valid JSON")
)

type statePattern struct {
	name string
	re   *regexp.Regexp
}

// statePatterns are tried in order; the first that matches decides.
var statePatterns = []statePattern{
	{"window.__INITIAL_STATE__", regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});`)},
	{"window.__INITIAL_STATE__ (array)", regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\[.*?\]);`)},
	{"__INITIAL_STATE__", regexp.MustCompile(`(?s)__INITIAL_STATE__\s*=\s*(\{.*?\});`)},
	{"window.__NUXT__", regexp.MustCompile(`(?s)window\.__NUXT__\s*=\s*(\{.*?\});`)},
	{"window.__VUE_SSR_CONTEXT__", regexp.MustCompile(`(?s)window\.__VUE_SSR_CONTEXT__\s*=\s*(\{.*?\});`)},
}

// Extraction is the embedded page state found in a catalog page.
type Extraction struct {
	State   json.RawMessage
	Pattern string // name of the pattern that matched
	Scripts int    // number of <script> elements inspected
}

// ExtractInitialState finds the JSON state assigned by the page's inline
// scripts. Script bodies are searched first, then the whole document.
func ExtractInitialState(html []byte) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var haystacks [][]byte
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if text := sel.Text(); text != "" {
			haystacks = append(haystacks, []byte(text))
		}
	})
	scripts := doc.Find("script").Length()
	haystacks = append(haystacks, html)

	for _, p := range statePatterns {
		for _, hay := range haystacks {
			m := p.re.FindSubmatch(hay)
			if m == nil {
				continue
			}
			state := bytes.TrimSpace(m[1])
			if !json.Valid(state) {
				return nil, fmt.Errorf("%w: matched %s", ErrInvalidState, p.name)
			}
			return &Extraction{
				State:   json.RawMessage(state),
				Pattern: p.name,
				Scripts: scripts,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w (%d script blocks inspected)", ErrStateNotFound, scripts)
}

const (
	minScriptChars = 50
	previewChars   = 200
)

var jsonLikeRE = regexp.MustCompile(`\{[^{}]*"[^"]*"[^{}]*\}`)

// ScriptFragment describes one inline script for diagnosing a page whose
// state could not be found.
type ScriptFragment struct {
	Index   int               // 1-based position among the page's scripts
	Length  int               // characters in the trimmed script body
	Preview string            // first characters of the body
	Objects []json.RawMessage // flat JSON objects found in the body
}

// InspectScripts lists the inline scripts longer than a few characters with
// a preview of each and the flat JSON objects they contain.
func InspectScripts(html []byte) ([]ScriptFragment, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var fragments []ScriptFragment
	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		body := []rune(strings.TrimSpace(sel.Text()))
		if len(body) <= minScriptChars {
			return
		}

		f := ScriptFragment{Index: i + 1, Length: len(body), Preview: string(body)}
		if len(body) > previewChars {
			f.Preview = string(body[:previewChars]) + "..."
		}
		for _, m := range jsonLikeRE.FindAllString(string(body), -1) {
			if json.Valid([]byte(m)) {
				f.Objects = append(f.Objects, json.RawMessage(m))
			}
		}
		fragments = append(fragments, f)
	})
	return fragments, nil
}

// Indent pretty-prints a state document with two-space indentation.
func Indent(state json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, state, "", "  "); err != nil {
		return nil, fmt.Errorf("formatting state: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
