package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"logtriage/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triage.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
categories:
  - name: db
    patterns: ["db"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BucketBy != BucketByHour {
		t.Errorf("Expected default bucket_by=hour, got %q", cfg.BucketBy)
	}
	if cfg.SeverityPattern != DefaultSeverityPattern {
		t.Errorf("Expected default severity pattern, got %q", cfg.SeverityPattern)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("Unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
	if len(cfg.Categories) != 1 || cfg.Categories[0].Name != "db" {
		t.Errorf("Unexpected categories: %+v", cfg.Categories)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
bucket_by: date
timestamp_layouts:
  - "2006/01/02 15:04:05"
categories:
  - name: database
    patterns: ["db", "connection pool"]
  - name: customer
    patterns: ["customer_id"]
    extract:
      delimiter: "="
      field: 1
  - name: large
    patterns: ['^\d+(\.\d+)?G']
    regex: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BucketBy != BucketByDate {
		t.Errorf("Expected bucket_by=date, got %q", cfg.BucketBy)
	}
	if got := cfg.CategoryNames(); len(got) != 3 || got[0] != "database" || got[2] != "large" {
		t.Errorf("Category order not preserved: %v", got)
	}
	customer := cfg.Categories[1]
	if customer.Extract == nil || customer.Extract.Delimiter != "=" || customer.Extract.Field != 1 {
		t.Errorf("Extract rule lost: %+v", customer.Extract)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, types.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad bucket_by", `
bucket_by: minute
`},
		{"unnamed category", `
categories:
  - patterns: ["db"]
`},
		{"duplicate category", `
categories:
  - name: db
    patterns: ["db"]
  - name: db
    patterns: ["database"]
`},
		{"category without patterns", `
categories:
  - name: db
`},
		{"invalid regex", `
categories:
  - name: db
    patterns: ["("]
    regex: true
`},
		{"extract without delimiter", `
categories:
  - name: db
    patterns: ["db"]
    extract:
      field: 1
`},
		{"negative extract field", `
categories:
  - name: db
    patterns: ["db"]
    extract:
      delimiter: "="
      field: -1
`},
		{"bad severity pattern", `
severity_pattern: "("
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !errors.Is(err, types.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
