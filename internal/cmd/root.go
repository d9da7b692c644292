package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/treegrep/internal/config"
	"github.com/harrison/treegrep/internal/display"
	"github.com/harrison/treegrep/internal/logger"
	"github.com/harrison/treegrep/internal/metrics"
	"github.com/harrison/treegrep/internal/pipeline"
	"github.com/harrison/treegrep/internal/report"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// ErrSearchFailed is returned when the run failed after it was handed to the
// orchestrator: an invalid root, a queue that could not be created or a worker
// failure. Diagnostics have already been logged by then.
var ErrSearchFailed = errors.New("search failed")

// ExitCode maps the result of Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// NewRootCommand creates and returns the root cobra command for treegrep
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "treegrep --file <masks> --text <text> [--path <dir>] [--recursive]",
		Short: "Search a directory tree for text in files matching glob masks",
		Long: `treegrep walks a directory tree, selects entries whose path matches one of
the semicolon-separated glob masks (* and ? wildcards, case-insensitive) and
searches each selected file for the given text.

Walking and searching run concurrently and are connected by a bounded queue.
Every hit is printed as path:line:col followed by a summary line.

Configuration is loaded from .treegrep/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Search *.txt files directly under ./docs
  treegrep -p ./docs -f "*.txt" -t TODO

  # Search C++ sources and headers recursively, ignoring case
  treegrep -r -i -f "*.cpp;*.h" -t mutex

  # Match masks against file names only and write a YAML report
  treegrep -r --match-name -f "Makefile" -t install -o report.yaml --format yaml`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSearch,
	}

	cmd.Flags().StringP("path", "p", ".", "Root directory to search")
	cmd.Flags().StringP("file", "f", "", `Semicolon-separated file masks, e.g. "*.cpp;*.h"`)
	cmd.Flags().StringP("text", "t", "", "Text to search for")
	cmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolP("ignore-case", "i", false, "Case-insensitive text search")
	cmd.Flags().Bool("match-name", false, "Match masks against base names instead of full paths")
	cmd.Flags().StringArray("exclude", nil, "Directory name to skip (repeatable)")
	cmd.Flags().StringP("output", "o", "", "Write a results report to this file")
	cmd.Flags().String("format", "", "Report format: json or yaml")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics in text format to this file")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().String("config", "", "Path to config file (default: .treegrep/config.yaml)")

	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("text")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	root, _ := cmd.Flags().GetString("path")
	masks, _ := cmd.Flags().GetString("file")
	text, _ := cmd.Flags().GetString("text")
	recursive, _ := cmd.Flags().GetBool("recursive")
	if text == "" {
		return fmt.Errorf("--text cannot be empty")
	}

	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	log := logger.NewMulti(console)
	if cfg.LogDir != "" {
		fileLogger, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLogger.Close()
		log = logger.NewMulti(console, fileLogger)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	orch := pipeline.NewOrchestrator(pipeline.Options{
		Root:           root,
		Masks:          masks,
		Text:           text,
		Recursive:      recursive,
		IgnoreCase:     cfg.Search.IgnoreCase,
		MatchBaseName:  cfg.Walk.MatchName,
		ExcludeDirs:    cfg.Walk.ExcludeDirs,
		SkipUnreadable: cfg.Walk.SkipUnreadable,
		QueueName:      cfg.Queue.Name,
		Capacity:       cfg.Queue.Capacity,
		MaxItemSize:    cfg.Queue.MaxItemSize,
		RuntimeDir:     cfg.Queue.RuntimeDir,
	}, log, m)

	rep, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	summary := rep.Summary()
	out := display.NewPrinter(cmd.OutOrStdout(), display.ColorEnabled(cmd.OutOrStdout()))
	out.Matches(rep.Results)
	out.Summary(summary)

	warn := display.NewPrinter(cmd.ErrOrStderr(), display.ColorEnabled(cmd.ErrOrStderr()))
	if len(rep.Skipped) > 0 {
		warn.Warn(display.WarnSkipped(
			fmt.Sprintf("longer than the queue item limit of %d bytes", cfg.Queue.MaxItemSize-1),
			rep.Skipped))
	}
	if !rep.Failed() && rep.Produced == 0 {
		warn.Warn(display.WarnNoMatches(masks, root, recursive))
	}

	log.LogSummary(summary)

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.LogWarn(fmt.Sprintf("failed to write metrics file: %v", err))
		}
	}

	if cfg.Output.Path != "" {
		doc := report.Build(summary, rep.Results)
		if err := report.Write(cfg.Output.Path, cfg.Output.Format, doc); err != nil {
			return err
		}
		log.LogInfo(fmt.Sprintf("report written to %s", cfg.Output.Path))
	}

	if rep.Failed() {
		return ErrSearchFailed
	}
	return nil
}

// loadConfig reads the config file and applies changed flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var overrides config.FlagOverrides
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		overrides.LogLevel = &v
	}
	if flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		overrides.LogDir = &v
	}
	if flags.Changed("ignore-case") {
		v, _ := flags.GetBool("ignore-case")
		overrides.IgnoreCase = &v
	}
	if flags.Changed("match-name") {
		v, _ := flags.GetBool("match-name")
		overrides.MatchName = &v
	}
	if flags.Changed("exclude") {
		v, _ := flags.GetStringArray("exclude")
		overrides.ExcludeDirs = &v
	}
	if flags.Changed("output") {
		v, _ := flags.GetString("output")
		overrides.Output = &v
	}
	if flags.Changed("format") {
		v, _ := flags.GetString("format")
		overrides.Format = &v
	}
	if flags.Changed("metrics-file") {
		v, _ := flags.GetString("metrics-file")
		overrides.MetricsFile = &v
	}
	cfg.MergeWithFlags(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
