// Package config loads sofetch settings from YAML with SOFETCH_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sofetch/internal/diary"
	"sofetch/internal/interceptor"
	"sofetch/internal/logging"
)

type Config struct {
	Fixture              string `yaml:"fixture"`
	MissingEntryStrategy string `yaml:"missingEntryStrategy"`
	// RecordNewEntries is a pointer so an absent key keeps the default of true.
	RecordNewEntries *bool `yaml:"recordNewEntries"`

	Record  RecordConfig  `yaml:"record"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type RecordConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// JournalConfig enables the bolt exchange journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads path, applies defaults and environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func ApplyDefaults(cfg *Config) {
	if cfg.Fixture == "" {
		cfg.Fixture = diary.DefaultPath
	}
	if cfg.MissingEntryStrategy == "" {
		cfg.MissingEntryStrategy = string(interceptor.StrategyWarn)
	}
	if cfg.RecordNewEntries == nil {
		record := true
		cfg.RecordNewEntries = &record
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = string(logging.FormatText)
	}
}

// ApplyEnv overrides fields from SOFETCH_* variables. Unparsable values
// are ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("SOFETCH_FIXTURE"); v != "" {
		cfg.Fixture = v
	}
	if v := os.Getenv("SOFETCH_MISSING_ENTRY_STRATEGY"); v != "" {
		cfg.MissingEntryStrategy = v
	}
	if v := os.Getenv("SOFETCH_RECORD_NEW_ENTRIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RecordNewEntries = &b
		}
	}
	if v := os.Getenv("SOFETCH_RECORD_INCLUDE"); v != "" {
		cfg.Record.Include = splitList(v)
	}
	if v := os.Getenv("SOFETCH_RECORD_EXCLUDE"); v != "" {
		cfg.Record.Exclude = splitList(v)
	}
	if v := os.Getenv("SOFETCH_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("SOFETCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SOFETCH_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SOFETCH_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}

func Validate(cfg *Config) error {
	var errs []error
	if _, err := interceptor.ParseStrategy(cfg.MissingEntryStrategy); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.RecordFilter().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", cfg.Log.Level))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case string(logging.FormatText), string(logging.FormatJSON):
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", cfg.Log.Format))
	}
	return errors.Join(errs...)
}

// Interceptor converts to the interceptor's settings. An absent
// recordNewEntries means record.
func (c *Config) Interceptor() (interceptor.Config, error) {
	strategy, err := interceptor.ParseStrategy(c.MissingEntryStrategy)
	if err != nil {
		return interceptor.Config{}, err
	}
	record := c.RecordNewEntries == nil || *c.RecordNewEntries
	return interceptor.Config{MissingEntryStrategy: strategy, DisableRecording: !record}, nil
}

func (c *Config) RecordFilter() interceptor.RecordFilter {
	return interceptor.RecordFilter{Include: c.Record.Include, Exclude: c.Record.Exclude}
}

func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  logging.ParseLevel(c.Log.Level),
		Format: logging.ParseFormat(c.Log.Format),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
