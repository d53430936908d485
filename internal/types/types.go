package types

import (
	"errors"
	"time"
)

// Severity classifies a line along the severity dimension
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
	SeverityUnknown Severity = "UNKNOWN"
)

// Severities lists the severity levels in rendering order
var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityUnknown}

// Sentinel errors for the fatal error classes. Line-level degradation is not
// an error: degraded lines are counted, never propagated.
var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnreadableInput = errors.New("unreadable input")
)

// UnknownBucket is the histogram key for lines whose timestamp could not be parsed
const UnknownBucket = "unknown"

// LogLine is one classified line of input. Immutable once built.
type LogLine struct {
	Raw       string     `json:"raw"`
	Source    string     `json:"source"`
	Timestamp *time.Time `json:"timestamp,omitempty"` // nil when no recognizable timestamp
	Severity  Severity   `json:"severity"`
	Message   string     `json:"message"`
}

// Report is an immutable snapshot of aggregate state. Rendering a Report is
// pure; all derived facts (window, totals) are computed before the snapshot
// is handed out.
type Report struct {
	ID            string     `json:"id" yaml:"id"`
	GeneratedAt   time.Time  `json:"generated_at" yaml:"generated_at"`
	Inputs        []string   `json:"inputs" yaml:"inputs"`
	TotalLines    int        `json:"total_lines" yaml:"total_lines"`
	DegradedLines int        `json:"degraded_lines" yaml:"degraded_lines"`
	WindowStart   *time.Time `json:"window_start,omitempty" yaml:"window_start,omitempty"`
	WindowEnd     *time.Time `json:"window_end,omitempty" yaml:"window_end,omitempty"`

	// Categories preserves configuration order so rendering is deterministic.
	Categories     []string            `json:"categories" yaml:"categories"`
	SeverityCounts map[Severity]int    `json:"severity_counts" yaml:"severity_counts"`
	CategoryCounts map[string]int      `json:"category_counts" yaml:"category_counts"`
	BucketCounts   map[string]int      `json:"bucket_counts" yaml:"bucket_counts"`
	Extracted      map[string][]string `json:"extracted,omitempty" yaml:"extracted,omitempty"`
}
