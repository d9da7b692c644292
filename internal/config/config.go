// Package config loads treegrep settings from .treegrep/config.yaml and
// merges command-line overrides on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/treegrep/internal/queue"
)

// Report formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// QueueConfig configures the bounded queue between the two workers
type QueueConfig struct {
	// Name is the well-known queue name; a lock file of this name guards it
	Name string `yaml:"name"`

	// Capacity is the number of items the queue buffers
	Capacity int `yaml:"capacity"`

	// MaxItemSize is the largest accepted path in bytes, terminator included
	MaxItemSize int `yaml:"max_item_size"`

	// RuntimeDir holds the queue lock and owner files
	RuntimeDir string `yaml:"runtime_dir"`
}

// WalkConfig configures the directory walk
type WalkConfig struct {
	ExcludeDirs    []string `yaml:"exclude_dirs"`
	SkipUnreadable bool     `yaml:"skip_unreadable"`

	// MatchName applies masks to base names instead of full paths
	MatchName bool `yaml:"match_name"`
}

// SearchConfig configures the per-file text search
type SearchConfig struct {
	IgnoreCase bool `yaml:"ignore_case"`
}

// OutputConfig configures the optional results report file
type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Config represents treegrep configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written; empty disables file logging
	LogDir string `yaml:"log_dir"`

	Queue  QueueConfig  `yaml:"queue"`
	Walk   WalkConfig   `yaml:"walk"`
	Search SearchConfig `yaml:"search"`
	Output OutputConfig `yaml:"output"`

	// MetricsFile receives Prometheus metrics in text format after each run
	MetricsFile string `yaml:"metrics_file"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		LogDir:   "",
		Queue: QueueConfig{
			Name:        queue.DefaultName,
			Capacity:    queue.DefaultCapacity,
			MaxItemSize: queue.DefaultMaxItemSize,
			RuntimeDir:  queue.DefaultDir(),
		},
		Output: OutputConfig{
			Format: FormatJSON,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed or has unknown keys, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys absent from the file keep their defaults.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .treegrep/config.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".treegrep", "config.yaml"))
}

// FlagOverrides carries command-line values. Nil fields leave the
// configuration untouched.
type FlagOverrides struct {
	LogLevel    *string
	LogDir      *string
	IgnoreCase  *bool
	MatchName   *bool
	ExcludeDirs *[]string
	Output      *string
	Format      *string
	MetricsFile *string
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(f FlagOverrides) {
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.IgnoreCase != nil {
		c.Search.IgnoreCase = *f.IgnoreCase
	}
	if f.MatchName != nil {
		c.Walk.MatchName = *f.MatchName
	}
	if f.ExcludeDirs != nil {
		c.Walk.ExcludeDirs = append([]string(nil), *f.ExcludeDirs...)
	}
	if f.Output != nil {
		c.Output.Path = *f.Output
	}
	if f.Format != nil {
		c.Output.Format = *f.Format
	}
	if f.MetricsFile != nil {
		c.MetricsFile = *f.MetricsFile
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if strings.TrimSpace(c.Queue.Name) == "" {
		return fmt.Errorf("queue.name cannot be empty")
	}
	if strings.ContainsAny(c.Queue.Name, `/\`) {
		return fmt.Errorf("queue.name %q must not contain path separators", c.Queue.Name)
	}
	if c.Queue.Capacity <= 0 {
		return fmt.Errorf("queue.capacity must be > 0, got %d", c.Queue.Capacity)
	}
	if minSize := queue.EndOfStream().Size(); c.Queue.MaxItemSize < minSize {
		return fmt.Errorf("queue.max_item_size must be >= %d, got %d", minSize, c.Queue.MaxItemSize)
	}

	for _, dir := range c.Walk.ExcludeDirs {
		if dir == "" || strings.ContainsAny(dir, `/\`) {
			return fmt.Errorf("walk.exclude_dirs entry %q must be a plain directory name", dir)
		}
	}

	switch c.Output.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid output.format %q, must be one of: json, yaml", c.Output.Format)
	}

	return nil
}
