package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/circle-catalog/internal/circle"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OverrideReport summarizes the curator overrides of a run.
type OverrideReport struct {
	Applied  int      `json:"applied"`
	Missing  []string `json:"missing,omitempty"`
	Mistyped []string `json:"mistyped,omitempty"`
}

// OutputResult contains data to be output
type OutputResult struct {
	Command   string    `json:"command"`
	RunID     string    `json:"run_id,omitempty"`
	CheckedAt time.Time `json:"checked_at"`

	// Set by fetch.
	StateFile    string `json:"state_file,omitempty"`
	StatePattern string `json:"state_pattern,omitempty"`
	HTMLBytes    int    `json:"html_bytes,omitempty"`

	// Set by process and report.
	Status          string          `json:"status,omitempty"`
	Version         int             `json:"version"`
	PreviousVersion int             `json:"previous_version,omitempty"`
	Added           []string        `json:"added,omitempty"`
	Removed         []string        `json:"removed,omitempty"`
	Modified        []string        `json:"modified,omitempty"`
	Overrides       *OverrideReport `json:"overrides,omitempty"`
	Summary         *circle.Summary `json:"summary,omitempty"`
}

func addFetched(result *OutputResult, f *fetched, stateFile string) {
	result.StateFile = stateFile
	result.StatePattern = f.Pattern
	result.HTMLBytes = f.HTMLBytes
}

func addProcessed(result *OutputResult, out *processed) {
	r := out.Result
	result.Status = string(r.Status)
	result.Version = r.Version
	result.PreviousVersion = r.PreviousVersion
	if r.Diff != nil {
		result.Added = sortIDs(r.Diff.Added)
		result.Removed = sortIDs(r.Diff.Removed)
		result.Modified = sortIDs(r.Diff.Modified)
	}

	o := out.Overrides
	report := &OverrideReport{
		Applied: len(o.Applied),
		Missing: o.Missing,
	}
	for _, fe := range o.Mistyped {
		report.Mistyped = append(report.Mistyped, fe.Error())
	}
	result.Overrides = report
	result.Summary = out.Summary
}

func summarize(snapshot *circle.Snapshot) *circle.Summary {
	return circle.Summarize(snapshot.Creators)
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.StateFile != "" {
		fmt.Fprintf(w, "Fetched %d bytes, page state saved to %s (%s)\n",
			result.HTMLBytes, result.StateFile, result.StatePattern)
	}

	switch result.Status {
	case "updated":
		fmt.Fprintf(w, "Snapshot updated: version %d -> %d\n", result.PreviousVersion, result.Version)
		fmt.Fprintf(w, "  %d added, %d removed, %d modified\n",
			len(result.Added), len(result.Removed), len(result.Modified))
		if verbose {
			writeIDs(w, "Added", result.Added)
			writeIDs(w, "Removed", result.Removed)
			writeIDs(w, "Modified", result.Modified)
		}
	case "unchanged":
		fmt.Fprintf(w, "No changes detected. Snapshot stays at version %d\n", result.Version)
	case "":
		if result.Summary != nil {
			fmt.Fprintf(w, "Snapshot version %d\n", result.Version)
		}
	}

	if o := result.Overrides; o != nil {
		fmt.Fprintf(w, "Overrides: %d applied, %d missing, %d mistyped\n",
			o.Applied, len(o.Missing), len(o.Mistyped))
		if verbose {
			writeIDs(w, "Missing", o.Missing)
			for _, r := range o.Mistyped {
				fmt.Fprintf(w, "  Mistyped: %s\n", r)
			}
		}
	}

	if result.Summary != nil {
		writeSummary(w, result.Summary)
	}
	return nil
}

func writeIDs(w io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(sortIDs(ids), ", "))
}

func writeSummary(w io.Writer, s *circle.Summary) {
	fmt.Fprintf(w, "\nCircles: %d\n", s.Total)

	days := make([]string, 0, len(s.Days))
	for _, day := range sortedDays(s.Days) {
		days = append(days, fmt.Sprintf("%s %d", day, s.Days[day]))
	}
	if len(days) > 0 {
		fmt.Fprintf(w, "Days: %s\n", strings.Join(days, ", "))
	}

	fmt.Fprintf(w, "Booths: %d\n", s.Booths)
	fmt.Fprintf(w, "With URLs: %d\n", s.WithURLs)
	fmt.Fprintf(w, "With fandoms: %d\n", s.WithFandoms)
	fmt.Fprintf(w, "With works types: %d\n", s.WithWorksTypes)
	fmt.Fprintf(w, "With sampleworks images: %d\n", s.WithSampleworks)
	fmt.Fprintf(w, "With circle cut: %d\n", s.WithCircleCut)
	fmt.Fprintf(w, "With circle code: %d\n", s.WithCircleCode)

	writeCounts(w, "URL types", s.URLTypes, false)
	writeCounts(w, "Works types", s.WorksTypes, false)
	writeCounts(w, "Top fandoms", s.TopFandoms, true)
}

func writeCounts(w io.Writer, title string, counts []circle.Count, ranked bool) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for i, c := range counts {
		if ranked {
			fmt.Fprintf(w, "  %2d. %s (%d)\n", i+1, c.Label, c.Count)
		} else {
			fmt.Fprintf(w, "  %s: %d\n", c.Label, c.Count)
		}
	}
}
