package config

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the config.
const (
	EnvForwarding = "VARTRACE_FORWARDING"
	EnvMaxSweeps  = "VARTRACE_MAX_SWEEPS"
	EnvWorkers    = "VARTRACE_WORKERS"
)

// Config of the optimizer and the analyzer.
type Config struct {
	// Forwarding enables replacement of reads with assigned constants.
	Forwarding bool `yaml:"forwarding"`

	// MaxSweeps limits sweeps over a function.
	MaxSweeps int `yaml:"max_sweeps"`

	// Workers is the number of functions optimized concurrently.
	Workers int `yaml:"workers"`

	// RaisingFuncs never return normally, in addition to the builtin list.
	RaisingFuncs []Reference `yaml:"raising_funcs"`

	// PureFuncs neither run foreign code nor let their arguments escape, in addition
	// to the builtin list.
	PureFuncs []Reference `yaml:"pure_funcs"`

	// Report selects changes reported as diagnostics.
	Report ReportLevel `yaml:"report"`
}

// Default returns the config used when there is no config file.
func Default() *Config {
	return &Config{
		Forwarding: true,
		MaxSweeps:  64,
		Workers:    1,
		Report:     ReportFindings,
	}
}

// Load reads the config file and applies environment overrides. An empty path
// means defaults with overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		cfg.applyEnv()
		return cfg, cfg.validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes the config over defaults and applies environment overrides.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if env.Has(EnvForwarding) {
		c.Forwarding = env.Bool(EnvForwarding)
	}
	c.MaxSweeps = env.Int(EnvMaxSweeps, c.MaxSweeps)
	c.Workers = env.Int(EnvWorkers, c.Workers)
}

func (c *Config) validate() error {
	if c.MaxSweeps < 2 {
		return fmt.Errorf("max_sweeps must be at least 2, got %d", c.MaxSweeps)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}

	return nil
}

// ReportLevel selects changes reported as diagnostics.
type ReportLevel int

const (
	_ ReportLevel = iota

	// ReportFindings reports changes pointing to likely mistakes: self assignments,
	// dead stores, stores of values that always panic.
	ReportFindings

	// ReportAll reports every change.
	ReportAll
)

func (l *ReportLevel) String() string {
	v, err := l.MarshalText()
	if err != nil {
		return fmt.Sprintf("report-level-invalid(%d)", *l)
	}

	return string(v)
}

var _ encoding.TextUnmarshaler = (*ReportLevel)(nil)

func (l *ReportLevel) UnmarshalText(b []byte) error {
	switch string(b) {
	case "findings":
		*l = ReportFindings
		return nil
	case "all":
		*l = ReportAll
		return nil
	default:
		return fmt.Errorf("unknown report level %q", b)
	}
}

func (l ReportLevel) MarshalText() ([]byte, error) {
	switch l {
	case ReportFindings:
		return []byte("findings"), nil
	case ReportAll:
		return []byte("all"), nil
	default:
		return nil, fmt.Errorf("cannot marshal invalid ReportLevel(%d)", l)
	}
}
