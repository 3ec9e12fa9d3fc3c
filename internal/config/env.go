// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// lookupEnv returns the value of EnvPrefix+key when it is set and non-empty.
func lookupEnv(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// This is useful for aliased flags where either the short or long form may be used.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the PICALC_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string) error
}

// envOverrides is the declarative table of all environment variable overrides.
var envOverrides = []envOverride{
	// Numeric overrides
	{"LENGTH", []string{"length", "l"}, func(c *AppConfig, v string) error {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return envError("LENGTH", v, err)
		}
		c.Length = parsed
		return nil
	}},
	{"WORKERS", []string{"workers", "w"}, func(c *AppConfig, v string) error {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return envError("WORKERS", v, err)
		}
		c.Workers = parsed
		return nil
	}},
	{"MAILBOX", []string{"mailbox"}, func(c *AppConfig, v string) error {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return envError("MAILBOX", v, err)
		}
		c.Mailbox = parsed
		return nil
	}},

	// Duration overrides
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) error {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return envError("TIMEOUT", v, err)
		}
		c.Timeout = parsed
		return nil
	}},

	// String overrides
	{"OUTPUT", []string{"output", "o"}, func(c *AppConfig, v string) error {
		c.OutputFile = v
		return nil
	}},
	{"METRICS_ADDR", []string{"metrics-addr"}, func(c *AppConfig, v string) error {
		c.MetricsAddr = v
		return nil
	}},
	{"LOG_LEVEL", []string{"log-level"}, func(c *AppConfig, v string) error {
		c.LogLevel = v
		return nil
	}},

	// Boolean overrides
	{"QUIET", []string{"quiet", "q"}, func(c *AppConfig, v string) error {
		c.Quiet = parseBoolEnv(v, c.Quiet)
		return nil
	}},
	{"VERBOSE", []string{"verbose", "v"}, func(c *AppConfig, v string) error {
		c.Verbose = parseBoolEnv(v, c.Verbose)
		return nil
	}},
	{"DETAILS", []string{"details", "d"}, func(c *AppConfig, v string) error {
		c.Details = parseBoolEnv(v, c.Details)
		return nil
	}},
	{"TUI", []string{"tui"}, func(c *AppConfig, v string) error {
		c.TUI = parseBoolEnv(v, c.TUI)
		return nil
	}},
	{"NO_COLOR", []string{"no-color"}, func(c *AppConfig, v string) error {
		c.NoColor = parseBoolEnv(v, c.NoColor)
		return nil
	}},
}

func envError(key, val string, err error) error {
	return apperrors.NewConfigError("invalid %s%s=%q: %v", EnvPrefix, key, val, err)
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
//
// Supported environment variables (all prefixed with PICALC_):
//   - LENGTH, WORKERS, MAILBOX, TIMEOUT, OUTPUT, METRICS_ADDR, LOG_LEVEL,
//     QUIET, VERBOSE, DETAILS, TUI, NO_COLOR, CONFIG
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val, ok := lookupEnv(o.envKey); ok {
			if err := o.apply(config, val); err != nil {
				return err
			}
		}
	}
	return nil
}
