// Package loadgen provides a load generation tool for the query API.
package loadgen

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls a load run.
type Config struct {
	// Target is the base URL of the API server.
	Target string `yaml:"target"`
	// Duration is how long the run lasts.
	Duration time.Duration `yaml:"duration"`
	// Workers is the number of concurrent request loops.
	Workers int `yaml:"workers"`
	// Seed makes the generated query mix reproducible.
	Seed int64 `yaml:"seed"`
	// CodePool is the number of distinct item codes to query.
	CodePool int `yaml:"code_pool"`
	// Owners are the owner scopes to mix into queries. Empty entries
	// query the global scope.
	Owners []string `yaml:"owners"`
	// ReferenceRatio is the fraction of operations that hit the
	// references endpoint instead of occurrences, in [0,1].
	ReferenceRatio float64 `yaml:"reference_ratio"`
}

// DefaultConfig returns a short smoke-run configuration.
func DefaultConfig() *Config {
	return &Config{
		Target:         "http://localhost:8080",
		Duration:       10 * time.Second,
		Workers:        5,
		Seed:           1,
		CodePool:       100,
		Owners:         []string{""},
		ReferenceRatio: 0.25,
	}
}

// LoadConfig reads a YAML config file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target is required")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.CodePool <= 0 {
		return fmt.Errorf("code_pool must be positive")
	}
	if c.ReferenceRatio < 0 || c.ReferenceRatio > 1 {
		return fmt.Errorf("reference_ratio must be in [0,1]")
	}
	return nil
}
