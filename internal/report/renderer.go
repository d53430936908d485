package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"logtriage/internal/types"
)

// Renderer turns a Report into output text. Rendering is pure: the same
// Report always produces byte-identical output.
type Renderer interface {
	Render(rep types.Report) (string, error)
}

// ForFormat returns the renderer for an output format name
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return &TextRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "yaml":
		return &YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (styled terminal output)
// ---------------------------------------------------------------------------

var (
	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleSection = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true) // cyan
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))           // gray
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))           // yellow
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleUnknown = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Faint(true)
)

// TextRenderer produces the human-readable triage summary
type TextRenderer struct{}

func (r *TextRenderer) Render(rep types.Report) (string, error) {
	var b strings.Builder

	fmt.Fprintln(&b, styleHeader.Render(fmt.Sprintf("Triage Report %s", rep.ID)))
	fmt.Fprintf(&b, "Inputs: %s\n", strings.Join(rep.Inputs, ", "))
	fmt.Fprintf(&b, "Lines: %d (degraded: %d)\n", rep.TotalLines, rep.DegradedLines)
	if rep.WindowStart != nil && rep.WindowEnd != nil {
		fmt.Fprintf(&b, "Window: %s .. %s\n",
			rep.WindowStart.Format("2006-01-02 15:04:05"),
			rep.WindowEnd.Format("2006-01-02 15:04:05"))
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, styleSection.Render("Severity"))
	for _, sev := range types.Severities {
		fmt.Fprintf(&b, "  %s %d\n", severityTag(sev), rep.SeverityCounts[sev])
	}

	if len(rep.Categories) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, styleSection.Render("Categories"))
		for _, name := range rep.Categories {
			fmt.Fprintf(&b, "  %-20s %d\n", name, rep.CategoryCounts[name])
		}
	}

	if len(rep.BucketCounts) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, styleSection.Render("Histogram"))
		for _, key := range sortedBuckets(rep.BucketCounts) {
			fmt.Fprintf(&b, "  %-12s %d\n", key, rep.BucketCounts[key])
		}
	}

	for _, name := range rep.Categories {
		vals := rep.Extracted[name]
		if len(vals) == 0 {
			continue
		}
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, styleSection.Render(fmt.Sprintf("Extracted: %s", name)))
		for i, val := range vals {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, val)
		}
	}

	return b.String(), nil
}

func severityTag(sev types.Severity) string {
	padded := fmt.Sprintf("%-8s", sev)
	switch sev {
	case types.SeverityError:
		return styleError.Render(padded)
	case types.SeverityWarning:
		return styleWarning.Render(padded)
	case types.SeverityUnknown:
		return styleUnknown.Render(padded)
	default:
		return styleInfo.Render(padded)
	}
}

// sortedBuckets orders histogram keys lexicographically, which is
// chronological for both hour-of-day and date keys, with "unknown" last.
func sortedBuckets(buckets map[string]int) []string {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		if key != types.UnknownBucket {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	if _, ok := buckets[types.UnknownBucket]; ok {
		keys = append(keys, types.UnknownBucket)
	}
	return keys
}

// ---------------------------------------------------------------------------
// Structured Renderers (for piping)
// ---------------------------------------------------------------------------

// JSONRenderer emits the report as indented JSON
type JSONRenderer struct{}

func (r *JSONRenderer) Render(rep types.Report) (string, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(data) + "\n", nil
}

// YAMLRenderer emits the report as a YAML document
type YAMLRenderer struct{}

func (r *YAMLRenderer) Render(rep types.Report) (string, error) {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(data), nil
}
