package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/treegrep/internal/queue"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.LogDir)
	assert.Equal(t, queue.DefaultName, cfg.Queue.Name)
	assert.Equal(t, queue.DefaultCapacity, cfg.Queue.Capacity)
	assert.Equal(t, queue.DefaultMaxItemSize, cfg.Queue.MaxItemSize)
	assert.Equal(t, queue.DefaultDir(), cfg.Queue.RuntimeDir)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.False(t, cfg.Search.IgnoreCase)
	assert.NoError(t, cfg.Validate())
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	path := writeConfig(t, `log_level: debug
log_dir: /tmp/treegrep-logs
queue:
  name: custom.queue
  capacity: 16
  max_item_size: 512
walk:
  exclude_dirs: [.git, node_modules]
  skip_unreadable: true
  match_name: true
search:
  ignore_case: true
output:
  path: results.yaml
  format: yaml
metrics_file: /tmp/treegrep.prom
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/treegrep-logs", cfg.LogDir)
	assert.Equal(t, "custom.queue", cfg.Queue.Name)
	assert.Equal(t, 16, cfg.Queue.Capacity)
	assert.Equal(t, 512, cfg.Queue.MaxItemSize)
	assert.Equal(t, queue.DefaultDir(), cfg.Queue.RuntimeDir, "absent keys keep defaults")
	assert.Equal(t, []string{".git", "node_modules"}, cfg.Walk.ExcludeDirs)
	assert.True(t, cfg.Walk.SkipUnreadable)
	assert.True(t, cfg.Walk.MatchName)
	assert.True(t, cfg.Search.IgnoreCase)
	assert.Equal(t, "results.yaml", cfg.Output.Path)
	assert.Equal(t, FormatYAML, cfg.Output.Format)
	assert.Equal(t, "/tmp/treegrep.prom", cfg.MetricsFile)
	assert.NoError(t, cfg.Validate())
}

// TestLoadConfigPartialFile verifies untouched sections keep defaults
func TestLoadConfigPartialFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "queue:\n  capacity: 4\n"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Queue.Capacity)
	assert.Equal(t, queue.DefaultName, cfg.Queue.Name)
	assert.Equal(t, queue.DefaultMaxItemSize, cfg.Queue.MaxItemSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigMissingAndEmpty(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "log_level: [unclosed"},
		{"unknown key", "max_concurrency: 4\n"},
		{"wrong type", "queue:\n  capacity: many\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to parse config file")
		})
	}
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".treegrep"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".treegrep", "config.yaml"), []byte("log_level: warn\n"), 0644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

// TestMergeWithFlags verifies non-nil flags win over file values
func TestMergeWithFlags(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log_level: debug\nsearch:\n  ignore_case: true\nwalk:\n  exclude_dirs: [.git]\n"))
	require.NoError(t, err)

	level := "error"
	ignoreCase := false
	exclude := []string{"vendor"}
	output := "out.json"

	cfg.MergeWithFlags(FlagOverrides{
		LogLevel:    &level,
		IgnoreCase:  &ignoreCase,
		ExcludeDirs: &exclude,
		Output:      &output,
	})

	assert.Equal(t, "error", cfg.LogLevel)
	assert.False(t, cfg.Search.IgnoreCase)
	assert.Equal(t, []string{"vendor"}, cfg.Walk.ExcludeDirs)
	assert.Equal(t, "out.json", cfg.Output.Path)
	assert.Equal(t, FormatJSON, cfg.Output.Format, "nil flags leave values alone")

	exclude[0] = "mutated"
	assert.Equal(t, []string{"vendor"}, cfg.Walk.ExcludeDirs, "flag slice is copied")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log_level"},
		{"empty queue name", func(c *Config) { c.Queue.Name = " " }, "queue.name cannot be empty"},
		{"queue name with separator", func(c *Config) { c.Queue.Name = "a/b" }, "path separators"},
		{"zero capacity", func(c *Config) { c.Queue.Capacity = 0 }, "queue.capacity must be > 0"},
		{"item size below sentinel", func(c *Config) { c.Queue.MaxItemSize = 4 }, "queue.max_item_size must be >="},
		{"exclude path", func(c *Config) { c.Walk.ExcludeDirs = []string{"a/b"} }, "walk.exclude_dirs"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "invalid output.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
