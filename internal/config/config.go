// Package config loads the YAML configuration shared by the ifdd commands.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/danielpatrickdp/ifdd/internal/discretize"
	"github.com/danielpatrickdp/ifdd/internal/gate"
	"github.com/danielpatrickdp/ifdd/internal/ifdd"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read.
const (
	EnvDB       = "IFDD_DB"
	EnvAddr     = "IFDD_ADDR"
	EnvLogLevel = "IFDD_LOG_LEVEL"
)

// #region types
// Config is the full runtime configuration.
type Config struct {
	DB             string               `yaml:"db"`
	Addr           string               `yaml:"addr"`
	LogLevel       string               `yaml:"log_level"`
	Representation RepresentationConfig `yaml:"representation"`
	Discovery      DiscoveryConfig      `yaml:"discovery"`
	Capacity       CapacityConfig       `yaml:"capacity"`
}

// RepresentationConfig describes the initial feature space. When Limits and Bins
// are set the base features come from an independent discretization and
// InitialFeatures is derived from the bin counts.
type RepresentationConfig struct {
	InitialFeatures int         `yaml:"initial_features"`
	ActionsNum      int         `yaml:"actions_num"`
	Limits          [][]float64 `yaml:"limits,omitempty"` // one [low, high] pair per dimension
	Bins            []int       `yaml:"bins,omitempty"`
}

// DiscoveryConfig mirrors ifdd.Config.
type DiscoveryConfig struct {
	Threshold         float64 `yaml:"threshold"`
	Sparsify          bool    `yaml:"sparsify"`
	UseCache          bool    `yaml:"use_cache"`
	MaxBatchDiscovery int     `yaml:"max_batch_discovery"`
	BatchThreshold    float64 `yaml:"batch_threshold"`
}

// CapacityConfig bounds growth. ThetaBudget is a human-readable size such as "64MB".
type CapacityConfig struct {
	MaxFeatures int    `yaml:"max_features"`
	ThetaBudget string `yaml:"theta_budget,omitempty"`
}

// #endregion types

// #region load
// Default returns the configuration used when no file is given.
func Default() *Config {
	d := ifdd.DefaultConfig()
	return &Config{
		DB:       "ifdd.db",
		Addr:     "localhost:50061",
		LogLevel: "info",
		Representation: RepresentationConfig{
			InitialFeatures: 64,
			ActionsNum:      4,
		},
		Discovery: DiscoveryConfig{
			Threshold:         d.DiscoveryThreshold,
			Sparsify:          d.Sparsify,
			UseCache:          d.UseCache,
			MaxBatchDiscovery: d.MaxBatchDiscovery,
			BatchThreshold:    d.BatchThreshold,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An empty
// path yields the defaults with overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}
	cfg.DB = envOr(EnvDB, cfg.DB)
	cfg.Addr = envOr(EnvAddr, cfg.Addr)
	cfg.LogLevel = envOr(EnvLogLevel, cfg.LogLevel)

	if len(cfg.Representation.Bins) > 0 {
		total := 0
		for _, b := range cfg.Representation.Bins {
			total += b
		}
		cfg.Representation.InitialFeatures = total
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// #endregion load

// #region validate
// Validate rejects configurations no engine can be built from.
func (c *Config) Validate() error {
	var errs []error
	r := c.Representation
	if r.ActionsNum <= 0 {
		errs = append(errs, fmt.Errorf("representation.actions_num must be positive, got %d", r.ActionsNum))
	}
	if r.InitialFeatures <= 0 && len(r.Bins) == 0 {
		errs = append(errs, fmt.Errorf("representation.initial_features must be positive, got %d", r.InitialFeatures))
	}
	if len(r.Limits) != len(r.Bins) {
		errs = append(errs, fmt.Errorf("representation: %d limits for %d bin counts", len(r.Limits), len(r.Bins)))
	}
	for i, l := range r.Limits {
		if len(l) != 2 {
			errs = append(errs, fmt.Errorf("representation.limits[%d] must be [low, high]", i))
		}
	}
	if c.Discovery.Threshold < 0 {
		errs = append(errs, fmt.Errorf("discovery.threshold must not be negative, got %g", c.Discovery.Threshold))
	}
	if c.Discovery.BatchThreshold < 0 {
		errs = append(errs, fmt.Errorf("discovery.batch_threshold must not be negative, got %g", c.Discovery.BatchThreshold))
	}
	if c.Discovery.MaxBatchDiscovery < 0 {
		errs = append(errs, fmt.Errorf("discovery.max_batch_discovery must not be negative, got %d", c.Discovery.MaxBatchDiscovery))
	}
	if c.Capacity.MaxFeatures < 0 {
		errs = append(errs, fmt.Errorf("capacity.max_features must not be negative, got %d", c.Capacity.MaxFeatures))
	}
	if _, err := c.thetaBudget(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// #endregion validate

// #region conversions
// EngineConfig converts the discovery and capacity sections to engine parameters.
func (c *Config) EngineConfig() (ifdd.Config, error) {
	budget, err := c.thetaBudget()
	if err != nil {
		return ifdd.Config{}, err
	}
	return ifdd.Config{
		DiscoveryThreshold: c.Discovery.Threshold,
		Sparsify:           c.Discovery.Sparsify,
		UseCache:           c.Discovery.UseCache,
		MaxBatchDiscovery:  c.Discovery.MaxBatchDiscovery,
		BatchThreshold:     c.Discovery.BatchThreshold,
		Capacity: gate.GateConfig{
			MaxFeatures: c.Capacity.MaxFeatures,
			ThetaBudget: budget,
		},
	}, nil
}

// Discretizer builds the initial feature space, or returns nil when the
// representation is configured by feature count alone.
func (c *Config) Discretizer() (*discretize.Independent, error) {
	if len(c.Representation.Bins) == 0 {
		return nil, nil
	}
	limits := make([][2]float64, len(c.Representation.Limits))
	for i, l := range c.Representation.Limits {
		if len(l) != 2 {
			return nil, fmt.Errorf("representation.limits[%d] must be [low, high]", i)
		}
		limits[i] = [2]float64{l[0], l[1]}
	}
	return discretize.NewIndependent(limits, c.Representation.Bins)
}

// SlogLevel is the parsed log level.
func (c *Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func (c *Config) thetaBudget() (uint64, error) {
	if c.Capacity.ThetaBudget == "" {
		return 0, nil
	}
	var size datasize.ByteSize
	if err := size.UnmarshalText([]byte(c.Capacity.ThetaBudget)); err != nil {
		return 0, fmt.Errorf("capacity.theta_budget %q: %w", c.Capacity.ThetaBudget, err)
	}
	return size.Bytes(), nil
}

// #endregion conversions

// #region helpers
func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s, err)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
