package config

import (
	"fmt"
	"regexp"

	"github.com/spf13/viper"

	"logtriage/internal/types"
)

// BucketBy values accepted in configuration
const (
	BucketByHour = "hour"
	BucketByDate = "date"
	BucketByNone = "none"
)

// DefaultSeverityPattern recognizes bracketed severity tokens like "[ERROR]".
// The first capture group must yield the token.
const DefaultSeverityPattern = `\[(INFO|WARN|WARNING|ERR|ERROR)\]`

// ExtractConfig pulls a delimited field out of lines matching a category
type ExtractConfig struct {
	Delimiter string `mapstructure:"delimiter"`
	Field     int    `mapstructure:"field"`
}

// CategoryConfig is one named content classification rule. Multiple patterns
// are OR-ed: the category matches when any pattern matches.
type CategoryConfig struct {
	Name     string         `mapstructure:"name"`
	Patterns []string       `mapstructure:"patterns"`
	Regex    bool           `mapstructure:"regex"` // patterns are regexes instead of substrings
	Extract  *ExtractConfig `mapstructure:"extract"`
}

// Config represents the complete triage configuration
type Config struct {
	SeverityPattern  string           `mapstructure:"severity_pattern"`
	BucketBy         string           `mapstructure:"bucket_by"`
	TimestampLayouts []string         `mapstructure:"timestamp_layouts"`
	Categories       []CategoryConfig `mapstructure:"categories"`
	LogLevel         string           `mapstructure:"log_level"`
	LogFormat        string           `mapstructure:"log_format"`
}

// Load reads the triage configuration from a file
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("severity_pattern", DefaultSeverityPattern)
	v.SetDefault("bucket_by", BucketByHour)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", types.ErrInvalidConfig, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %v", types.ErrInvalidConfig, err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validate rejects anything that would fail mid-run. All patterns are
// compiled here so a bad rule surfaces before any line is processed.
func validate(cfg *Config) error {
	if _, err := regexp.Compile(cfg.SeverityPattern); err != nil {
		return fmt.Errorf("%w: severity_pattern: %v", types.ErrInvalidConfig, err)
	}

	switch cfg.BucketBy {
	case BucketByHour, BucketByDate, BucketByNone:
	default:
		return fmt.Errorf("%w: bucket_by must be one of hour, date, none (got %q)", types.ErrInvalidConfig, cfg.BucketBy)
	}

	seen := make(map[string]bool)
	for i, cat := range cfg.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: categories[%d]: name is required", types.ErrInvalidConfig, i)
		}
		if seen[cat.Name] {
			return fmt.Errorf("%w: duplicate category %q", types.ErrInvalidConfig, cat.Name)
		}
		seen[cat.Name] = true

		if len(cat.Patterns) == 0 {
			return fmt.Errorf("%w: category %q: at least one pattern is required", types.ErrInvalidConfig, cat.Name)
		}
		if cat.Regex {
			for _, p := range cat.Patterns {
				if _, err := regexp.Compile(p); err != nil {
					return fmt.Errorf("%w: category %q: pattern %q: %v", types.ErrInvalidConfig, cat.Name, p, err)
				}
			}
		}

		if cat.Extract != nil {
			if cat.Extract.Delimiter == "" {
				return fmt.Errorf("%w: category %q: extract.delimiter is required", types.ErrInvalidConfig, cat.Name)
			}
			if cat.Extract.Field < 0 {
				return fmt.Errorf("%w: category %q: extract.field must be >= 0", types.ErrInvalidConfig, cat.Name)
			}
		}
	}

	return nil
}

// CategoryNames returns category names in configuration order
func (c *Config) CategoryNames() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}
