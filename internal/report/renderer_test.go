package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"logtriage/internal/types"
)

func sampleReport() types.Report {
	start := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC)
	return types.Report{
		ID:            "01J5TESTULID0000000000000",
		GeneratedAt:   time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC),
		Inputs:        []string{"app.log"},
		TotalLines:    4,
		DegradedLines: 1,
		WindowStart:   &start,
		WindowEnd:     &end,
		Categories:    []string{"db", "customer"},
		SeverityCounts: map[types.Severity]int{
			types.SeverityError:   2,
			types.SeverityInfo:    1,
			types.SeverityUnknown: 1,
		},
		CategoryCounts: map[string]int{"db": 2, "customer": 1},
		BucketCounts:   map[string]int{"09": 1, "14": 2, "unknown": 1},
		Extracted:      map[string][]string{"customer": {"42"}},
	}
}

func TestTextRenderer_Deterministic(t *testing.T) {
	r := &TextRenderer{}
	rep := sampleReport()

	first, err := r.Render(rep)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	second, err := r.Render(rep)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if first != second {
		t.Error("Rendering the same report twice must be byte-identical")
	}
}

func TestTextRenderer_Content(t *testing.T) {
	out, err := (&TextRenderer{}).Render(sampleReport())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, want := range []string{"01J5TESTULID0000000000000", "db", "customer", "42", "unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out)
		}
	}

	// Buckets render chronologically with unknown last.
	b09 := strings.Index(out, "\n  09 ")
	b14 := strings.Index(out, "\n  14 ")
	bUnknown := strings.Index(out, "\n  unknown")
	if b09 < 0 || b14 < 0 || bUnknown < 0 {
		t.Fatalf("Missing bucket rows:\n%s", out)
	}
	if b09 > b14 || b14 > bUnknown {
		t.Error("Expected bucket order 09, 14, unknown")
	}
}

func TestJSONRenderer_RoundTrip(t *testing.T) {
	out, err := (&JSONRenderer{}).Render(sampleReport())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var decoded types.Report
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.TotalLines != 4 || decoded.CategoryCounts["db"] != 2 {
		t.Errorf("Round trip lost data: %+v", decoded)
	}
}

func TestYAMLRenderer_RoundTrip(t *testing.T) {
	out, err := (&YAMLRenderer{}).Render(sampleReport())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var decoded types.Report
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if decoded.ID != "01J5TESTULID0000000000000" {
		t.Errorf("Round trip lost ID: %q", decoded.ID)
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"text", "json", "yaml", ""} {
		if _, err := ForFormat(format); err != nil {
			t.Errorf("Expected format %q to resolve, got %v", format, err)
		}
	}
	if _, err := ForFormat("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
