package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/picalc/internal/errors"
)

// FileConfig is the structure of a configuration file. Unset fields keep
// the value resolved so far.
//
//	run:
//	  length: 800000000
//	  workers: 8
//	  mailbox: 1
//	  timeout: 5m
//	output:
//	  file: pi.txt
//	  quiet: false
//	  details: true
//	log_level: info
//	metrics_addr: ":9090"
type FileConfig struct {
	Run         RunSection    `yaml:"run" json:"run"`
	Output      OutputSection `yaml:"output" json:"output"`
	LogLevel    string        `yaml:"log_level" json:"log_level"`
	MetricsAddr string        `yaml:"metrics_addr" json:"metrics_addr"`
}

// RunSection holds the run parameters.
type RunSection struct {
	Length  *int64 `yaml:"length" json:"length"`
	Workers *int   `yaml:"workers" json:"workers"`
	Mailbox *int   `yaml:"mailbox" json:"mailbox"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// OutputSection holds the presentation settings.
type OutputSection struct {
	File    string `yaml:"file" json:"file"`
	Quiet   *bool  `yaml:"quiet" json:"quiet"`
	Verbose *bool  `yaml:"verbose" json:"verbose"`
	Details *bool  `yaml:"details" json:"details"`
}

// LoadFile reads a YAML (.yaml, .yml) or JSON (.json) configuration file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	return &fc, nil
}

// apply copies the file values into cfg for every option not set on the
// command line.
func (f *FileConfig) apply(cfg *AppConfig, fs *flag.FlagSet) error {
	set := func(names ...string) bool { return isFlagSetAny(fs, names...) }

	if f.Run.Length != nil && !set("length", "l") {
		cfg.Length = *f.Run.Length
	}
	if f.Run.Workers != nil && !set("workers", "w") {
		cfg.Workers = *f.Run.Workers
	}
	if f.Run.Mailbox != nil && !set("mailbox") {
		cfg.Mailbox = *f.Run.Mailbox
	}
	if f.Run.Timeout != "" && !set("timeout") {
		d, err := time.ParseDuration(f.Run.Timeout)
		if err != nil {
			return apperrors.ValidationError{Field: "run.timeout", Message: err.Error()}
		}
		cfg.Timeout = d
	}
	if f.Output.File != "" && !set("output", "o") {
		cfg.OutputFile = f.Output.File
	}
	if f.Output.Quiet != nil && !set("quiet", "q") {
		cfg.Quiet = *f.Output.Quiet
	}
	if f.Output.Verbose != nil && !set("verbose", "v") {
		cfg.Verbose = *f.Output.Verbose
	}
	if f.Output.Details != nil && !set("details", "d") {
		cfg.Details = *f.Output.Details
	}
	if f.LogLevel != "" && !set("log-level") {
		cfg.LogLevel = f.LogLevel
	}
	if f.MetricsAddr != "" && !set("metrics-addr") {
		cfg.MetricsAddr = f.MetricsAddr
	}
	return nil
}
