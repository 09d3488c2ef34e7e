package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sofetch/internal/interceptor"
	"sofetch/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sofetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "testdata/diary.json", cfg.Fixture)
	ic, err := cfg.Interceptor()
	require.NoError(t, err)
	assert.Equal(t, interceptor.DefaultConfig(), ic)
	assert.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
fixture: fixtures/edgar.json
missingEntryStrategy: error
recordNewEntries: false
record:
  include: ["data.sec.gov/**"]
  exclude: ["*/health"]
journal:
  path: /tmp/journal.db
log:
  level: debug
  format: json
metrics:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fixtures/edgar.json", cfg.Fixture)
	ic, err := cfg.Interceptor()
	require.NoError(t, err)
	assert.Equal(t, interceptor.Config{MissingEntryStrategy: interceptor.StrategyError, DisableRecording: true}, ic)
	assert.Equal(t, []string{"data.sec.gov/**"}, cfg.RecordFilter().Include)
	assert.Equal(t, []string{"*/health"}, cfg.RecordFilter().Exclude)
	assert.Equal(t, "/tmp/journal.db", cfg.Journal.Path)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, logging.Config{Level: slog.LevelDebug, Format: logging.FormatJSON}, cfg.Logging())
}

func TestLoad_RecordDefaultsToTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "missingEntryStrategy: ignore\n"))
	require.NoError(t, err)
	ic, err := cfg.Interceptor()
	require.NoError(t, err)
	assert.False(t, ic.DisableRecording)
	assert.Equal(t, interceptor.StrategyIgnore, ic.MissingEntryStrategy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOFETCH_FIXTURE", "other.json")
	t.Setenv("SOFETCH_MISSING_ENTRY_STRATEGY", "error")
	t.Setenv("SOFETCH_RECORD_NEW_ENTRIES", "false")
	t.Setenv("SOFETCH_RECORD_EXCLUDE", "a/**, b/*")
	t.Setenv("SOFETCH_LOG_LEVEL", "warn")
	t.Setenv("SOFETCH_METRICS_ENABLED", "not-a-bool")

	cfg, err := Load(writeConfig(t, "missingEntryStrategy: warn\nmetrics:\n  enabled: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "other.json", cfg.Fixture)
	ic, err := cfg.Interceptor()
	require.NoError(t, err)
	assert.Equal(t, interceptor.StrategyError, ic.MissingEntryStrategy)
	assert.True(t, ic.DisableRecording)
	assert.Equal(t, []string{"a/**", "b/*"}, cfg.Record.Exclude)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestInterceptor_InvalidStrategy(t *testing.T) {
	cfg := Default()
	cfg.MissingEntryStrategy = "retry"

	_, err := cfg.Interceptor()
	assert.ErrorContains(t, err, "retry")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = Load(writeConfig(t, "fixture: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse")

	_, err = Load(writeConfig(t, "missingEntryStrategy: retry\nlog:\n  format: xml\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry")
	assert.Contains(t, err.Error(), "xml")
}
