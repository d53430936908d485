package classify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"logtriage/internal/config"
	"logtriage/internal/types"
)

// builtinLayouts are tried against the leading characters of a line, in
// order. Custom layouts from configuration are tried first.
var builtinLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"02/Jan/2006:15:04:05 -0700",
	"Jan _2 15:04:05",
}

// rule is a compiled category: the patterns are OR-ed, first match wins
// within the rule but every rule is evaluated against every line.
type rule struct {
	name     string
	patterns []*regexp.Regexp
	extract  *config.ExtractConfig
}

func (r *rule) matches(raw string) bool {
	for _, re := range r.patterns {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

// Result is the classification of one input line. The severity and content
// dimensions are independent: Categories may be empty while Severity is set,
// and vice versa.
type Result struct {
	Line       types.LogLine
	Categories []string          // matched category names, configuration order
	Extracted  map[string]string // category name -> extracted value, only on success
}

// Classifier tags lines with severity and content categories. It is purely
// functional per line and safe for concurrent use.
type Classifier struct {
	severity *regexp.Regexp
	layouts  []string
	rules    []rule
}

// New compiles the configured rules into a Classifier
func New(cfg *config.Config) (*Classifier, error) {
	pattern := cfg.SeverityPattern
	if pattern == "" {
		pattern = config.DefaultSeverityPattern
	}
	sev, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: severity_pattern: %v", types.ErrInvalidConfig, err)
	}

	rules := make([]rule, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		r := rule{name: cat.Name, extract: cat.Extract}
		for _, p := range cat.Patterns {
			if !cat.Regex {
				p = regexp.QuoteMeta(p)
			}
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%w: category %q: pattern %q: %v", types.ErrInvalidConfig, cat.Name, p, err)
			}
			r.patterns = append(r.patterns, re)
		}
		rules = append(rules, r)
	}

	layouts := append(append([]string{}, cfg.TimestampLayouts...), builtinLayouts...)

	return &Classifier{severity: sev, layouts: layouts, rules: rules}, nil
}

// Classify tags one raw line. It never fails: a missing severity token
// degrades to UNKNOWN, a malformed timestamp degrades to nil, and a missing
// extraction delimiter simply yields no value.
func (c *Classifier) Classify(raw, source string) Result {
	line := types.LogLine{
		Raw:      raw,
		Source:   source,
		Severity: types.SeverityUnknown,
		Message:  raw,
	}

	if m := c.severity.FindStringSubmatchIndex(raw); m != nil {
		// Prefer the first capture group; fall back to the whole match for
		// patterns without one.
		token := raw[m[0]:m[1]]
		if len(m) >= 4 && m[2] >= 0 {
			token = raw[m[2]:m[3]]
		}
		line.Severity = normalizeSeverity(token)
		// Message is the text after the severity token.
		line.Message = strings.TrimSpace(raw[m[1]:])
	}

	line.Timestamp = c.parseTimestamp(raw)

	res := Result{Line: line}
	for _, r := range c.rules {
		if !r.matches(raw) {
			continue
		}
		res.Categories = append(res.Categories, r.name)
		if r.extract == nil {
			continue
		}
		if val, ok := extractField(raw, r.extract.Delimiter, r.extract.Field); ok {
			if res.Extracted == nil {
				res.Extracted = make(map[string]string)
			}
			res.Extracted[r.name] = val
		}
	}

	return res
}

// parseTimestamp tries each layout against the line prefix. Returns nil when
// nothing parses; the caller buckets such lines as unknown.
func (c *Classifier) parseTimestamp(raw string) *time.Time {
	trimmed := strings.TrimLeft(raw, "[")
	for _, layout := range c.layouts {
		n := len(layout)
		if len(trimmed) < n {
			continue
		}
		if t, err := time.Parse(layout, trimmed[:n]); err == nil {
			return &t
		}
	}
	return nil
}

// extractField splits on the delimiter and returns the requested field.
// Total-or-skip: absent delimiter or out-of-range index reports !ok, never an
// error.
func extractField(raw, delimiter string, field int) (string, bool) {
	if !strings.Contains(raw, delimiter) {
		return "", false
	}
	parts := strings.Split(raw, delimiter)
	if field >= len(parts) {
		return "", false
	}
	val := strings.TrimSpace(parts[field])
	// A trailing delimiter leaves an empty field; treat it as absent.
	if field > 0 {
		val = firstToken(val)
	}
	if val == "" {
		return "", false
	}
	return val, true
}

// firstToken cuts the field at the first whitespace so "customer_id=1234 oops"
// extracts "1234" rather than the rest of the line.
func firstToken(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

// normalizeSeverity maps token variants onto the fixed severity set
func normalizeSeverity(token string) types.Severity {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "ERROR", "ERR":
		return types.SeverityError
	case "WARNING", "WARN":
		return types.SeverityWarning
	case "INFO":
		return types.SeverityInfo
	default:
		return types.SeverityUnknown
	}
}
