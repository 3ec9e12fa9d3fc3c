// Package config defines the application configuration and resolves it from
// command-line flags, PICALC_* environment variables and an optional
// configuration file.
//
// Priority (highest first): CLI flags > environment variables > config file > defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/leibniz"
	"github.com/agbru/picalc/internal/logging"
)

// EnvPrefix is the prefix shared by all environment variable overrides.
const EnvPrefix = "PICALC_"

// Defaults mirror the constants of the reference run: 800 million terms over
// eight workers.
const (
	DefaultLength  int64 = 800_000_000
	DefaultWorkers       = 8
)

// AppConfig holds the resolved application configuration.
type AppConfig struct {
	// Length is the number of series terms to sum.
	Length int64
	// Workers is the worker pool size (and number of jobs).
	Workers int
	// Mailbox is the per-worker queue depth (0 selects the default).
	Mailbox int
	// Timeout is an optional deadline on the whole run (0 disables it).
	Timeout time.Duration

	Quiet   bool
	Verbose bool
	Details bool
	TUI     bool
	NoColor bool

	// OutputFile is the path of the result file (empty for none).
	OutputFile string
	// ConfigFile is the path of the YAML/JSON configuration file.
	ConfigFile string
	// MetricsAddr is the listen address of the /metrics endpoint (empty for none).
	MetricsAddr string
	// LogLevel is one of debug, info, warn, error, off.
	LogLevel string
}

// ToRunOptions converts the configuration to the options of a run.
func (c AppConfig) ToRunOptions() leibniz.Options {
	return leibniz.Options{
		TotalLength:     c.Length,
		Workers:         c.Workers,
		MailboxCapacity: c.Mailbox,
	}
}

// Validate checks the configuration. Errors are apperrors.ConfigError values.
func (c AppConfig) Validate() error {
	if err := c.ToRunOptions().Validate(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return apperrors.NewConfigError("timeout cannot be negative, got %s", c.Timeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.Quiet && c.TUI {
		return apperrors.NewConfigError("--quiet and --tui are mutually exclusive")
	}
	return nil
}

// ParseConfig parses the command-line arguments, applies the config file and
// environment overrides, and validates the result.
//
// Parameters:
//   - programName: The name used in usage messages.
//   - args: The command-line arguments without the program name.
//   - errWriter: The writer for usage and parse errors.
//
// Returns:
//   - AppConfig: The resolved configuration.
//   - error: flag.ErrHelp when -h was requested, a ConfigError otherwise.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	cfg := AppConfig{
		Length:   DefaultLength,
		Workers:  DefaultWorkers,
		LogLevel: "info",
	}

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)
	fs.Usage = func() {
		fmt.Fprintf(errWriter, "Usage: %s [options]\n\n", programName)
		fmt.Fprintf(errWriter, "Approximates π with the Leibniz series over a pool of concurrent workers.\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(errWriter, "\nEvery option can also be set through a %s* environment variable.\n", EnvPrefix)
	}

	fs.Int64Var(&cfg.Length, "length", cfg.Length, "Number of series terms to sum.")
	fs.Int64Var(&cfg.Length, "l", cfg.Length, "Number of series terms to sum (shorthand).")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent workers (and jobs).")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "Number of concurrent workers (shorthand).")
	fs.IntVar(&cfg.Mailbox, "mailbox", cfg.Mailbox, "Per-worker queue depth (0 = default).")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Deadline for the whole run (0 = none).")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Print only the result.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Print only the result (shorthand).")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Print the execution configuration.")
	fs.BoolVar(&cfg.Verbose, "v", false, "Print the execution configuration (shorthand).")
	fs.BoolVar(&cfg.Details, "details", false, "Print error against math.Pi, jobs and memory statistics.")
	fs.BoolVar(&cfg.Details, "d", false, "Print details (shorthand).")
	fs.BoolVar(&cfg.TUI, "tui", false, "Run the interactive dashboard.")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&cfg.OutputFile, "output", "", "Write the result to this file.")
	fs.StringVar(&cfg.OutputFile, "o", "", "Write the result to this file (shorthand).")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML or JSON configuration file.")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090).")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error, off.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, err
		}
		return cfg, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return cfg, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	if !isFlagSet(fs, "config") {
		if v, ok := lookupEnv("CONFIG"); ok {
			cfg.ConfigFile = v
		}
	}
	if cfg.ConfigFile != "" {
		fc, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return cfg, apperrors.NewConfigError("%v", err)
		}
		if err := fc.apply(&cfg, fs); err != nil {
			return cfg, apperrors.WrapError(err, "config file %s", cfg.ConfigFile)
		}
	}

	if err := applyEnvOverrides(&cfg, fs); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
