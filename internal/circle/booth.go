package circle

import (
	"regexp"
	"strings"
)

var (
	boothAnnotationPattern = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	// Two-letter blocks (e.g. AB-37) are whole booths and never split.
	twoLetterBoothPattern = regexp.MustCompile(`^[A-Z]{2}-\d+$`)
	boothPattern          = regexp.MustCompile(`^([A-Z]+)-(\d+)([ab]*)$`)
)

// ParseBoothCodes expands a raw circle code such as "O-16ab / P-02 (corner)"
// into individual booth codes. A combined "ab" suffix becomes two half-booth
// codes. Segments that do not look like booth codes are passed through as-is.
// Duplicates are not removed.
func ParseBoothCodes(code string) []string {
	booths := make([]string, 0)
	if code == "" {
		return booths
	}

	code = boothAnnotationPattern.ReplaceAllString(code, "")

	for _, segment := range strings.Split(code, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		if twoLetterBoothPattern.MatchString(segment) {
			booths = append(booths, segment)
			continue
		}

		matches := boothPattern.FindStringSubmatch(segment)
		if matches == nil {
			booths = append(booths, segment)
			continue
		}

		prefix, number, suffix := matches[1], matches[2], matches[3]
		if suffix == "ab" {
			booths = append(booths, prefix+"-"+number+"a", prefix+"-"+number+"b")
			continue
		}
		booths = append(booths, segment)
	}

	return booths
}

// dedupe returns values with later duplicates removed, keeping order.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
