// Package config loads the demo driver's optional YAML overrides using
// gopkg.in/yaml.v3: read the file, unmarshal onto the defaults,
// validate, wrap every failure with fmt.Errorf's %w.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"blockheap/pkg/allocator"
)

// Config is the top-level configuration for cmd/demo.
type Config struct {
	Strategy string       `yaml:"strategy"`
	Demo     DemoConfig   `yaml:"demo"`
	Stats    StatsConfig  `yaml:"stats"`
}

// DemoConfig mirrors the demo driver's positional CLI arguments so a
// config file can supply defaults for them.
type DemoConfig struct {
	JobsPerSecond int `yaml:"jobs_per_second"`
	NumWorkers    int `yaml:"num_workers"`
}

// StatsConfig controls the optional NATS stats publisher in pkg/stats.
// Addr left empty disables publishing entirely.
type StatsConfig struct {
	NATSAddr string `yaml:"nats_addr"`
	Subject  string `yaml:"subject"`
}

// Default returns the built-in defaults used when no config file is
// supplied: first-fit allocation, one job per second, one worker.
func Default() *Config {
	return &Config{
		Strategy: allocator.FirstFit.String(),
		Demo: DemoConfig{
			JobsPerSecond: 1,
			NumWorkers:    1,
		},
		Stats: StatsConfig{
			Subject: "blockheap.stats",
		},
	}
}

// Load reads a YAML config file and overlays it onto Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Demo.JobsPerSecond <= 0 {
		return fmt.Errorf("demo.jobs_per_second must be > 0, got %d", c.Demo.JobsPerSecond)
	}
	if c.Demo.NumWorkers <= 0 {
		return fmt.Errorf("demo.num_workers must be > 0, got %d", c.Demo.NumWorkers)
	}
	if c.Strategy != "FIRST_FIT" && c.Strategy != "BEST_FIT" {
		return fmt.Errorf("strategy must be FIRST_FIT or BEST_FIT, got %q", c.Strategy)
	}
	return nil
}
