// Package config provides unified configuration loading for the
// simulator. It supports loading from YAML files and environment
// variables; precedence is defaults, then file, then environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lighthouse-gov/signals-sim/internal/allocate"
	"github.com/lighthouse-gov/signals-sim/internal/models"
)

// Config contains everything a run needs: simulation shape, governance
// parameters, initial token distribution, and logging.
type Config struct {
	// Simulation controls the shape of a run.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Governance holds the mechanism parameters, constant for a run.
	Governance models.Params `json:"governance" yaml:"governance"`

	// Distribution selects the initial wealth distribution.
	Distribution allocate.DistributionSpec `json:"distribution" yaml:"distribution"`

	// Logging configures the operational logger and the event trace.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig controls run shape: population, length, supply, seed.
type SimulationConfig struct {
	NumUsers    int   `json:"num_users" yaml:"num_users"`
	NumEpochs   int   `json:"num_epochs" yaml:"num_epochs"`
	TotalSupply int64 `json:"total_supply" yaml:"total_supply"`

	// Seed makes a run reproducible. 0 means derive one from the clock.
	Seed int64 `json:"seed" yaml:"seed"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets verbosity: "info" (default), "debug", or "trace".
	// "debug" additionally enables the JSONL event trace.
	Level string `json:"level" yaml:"level"`

	// EventDir is where the event trace is written when enabled.
	EventDir string `json:"event_dir,omitempty" yaml:"event_dir,omitempty"`
}

// Default returns a Config with the reference parameter set.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			NumUsers:    50,
			NumEpochs:   10,
			TotalSupply: 1_000_000,
		},
		Governance:   models.DefaultParams(),
		Distribution: allocate.DistributionSpec{Type: allocate.DistRandom},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from an optional YAML file and environment
// variables. path may be empty, in which case defaults plus environment
// apply.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = fileConfig
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file, layered on
// top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks the configuration before a run starts. This is a hard
// failure: every epoch is meaningless under invalid parameters.
func (c *Config) Validate() error {
	if c.Simulation.NumUsers <= 0 {
		return fmt.Errorf("num_users must be > 0, got %d", c.Simulation.NumUsers)
	}
	if c.Simulation.NumEpochs <= 0 {
		return fmt.Errorf("num_epochs must be > 0, got %d", c.Simulation.NumEpochs)
	}
	if c.Simulation.TotalSupply <= 0 {
		return fmt.Errorf("total_supply must be > 0, got %d", c.Simulation.TotalSupply)
	}
	if err := c.Governance.Validate(); err != nil {
		return fmt.Errorf("governance: %w", err)
	}

	validLevels := map[string]bool{"": true, "info": true, "debug": true, "trace": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies SIGNALS_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SIGNALS_NUM_USERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.NumUsers = n
		}
	}
	if v := os.Getenv("SIGNALS_NUM_EPOCHS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.NumEpochs = n
		}
	}
	if v := os.Getenv("SIGNALS_TOTAL_SUPPLY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Simulation.TotalSupply = n
		}
	}
	if v := os.Getenv("SIGNALS_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}
	if v := os.Getenv("SIGNALS_ACCEPTANCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Governance.AcceptanceThreshold = f
		}
	}
	if v := os.Getenv("SIGNALS_DECAY_MULTIPLIER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Governance.DecayMultiplier = f
		}
	}
	if v := os.Getenv("SIGNALS_REWARDS_ENABLED"); v != "" {
		config.Governance.Rewards.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("SIGNALS_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
