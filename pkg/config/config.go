// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-softrigid/pkg/validation"
)

// Config contains configuration for a soft-rigid simulation
type Config struct {
	Solver SolverConfig `json:"solver" yaml:"solver"`
	World  WorldConfig  `json:"world" yaml:"world"`
}

// SolverConfig controls the contact iteration loop
type SolverConfig struct {
	MaxIterations     int     `json:"maxIterations" yaml:"maxIterations"`
	ResidualTolerance float64 `json:"residualTolerance" yaml:"residualTolerance"`
	Parallel          bool    `json:"parallel" yaml:"parallel"`
	Workers           int     `json:"workers" yaml:"workers"`
}

// WorldConfig contains stepping and contact detection settings
type WorldConfig struct {
	TimeStep      float64    `json:"timeStep" yaml:"timeStep"`
	Gravity       [3]float64 `json:"gravity" yaml:"gravity"`
	ContactMargin float64    `json:"contactMargin" yaml:"contactMargin"`
	// NodeFriction scales every collider's friction for deformable contacts
	NodeFriction float64 `json:"nodeFriction" yaml:"nodeFriction"`
}

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvMaxIterations     = "SOFTRIGID_MAX_ITERATIONS"
	EnvResidualTolerance = "SOFTRIGID_RESIDUAL_TOLERANCE"
	EnvTimeStep          = "SOFTRIGID_TIME_STEP"
	EnvParallel          = "SOFTRIGID_PARALLEL"
	EnvWorkers           = "SOFTRIGID_WORKERS"
	EnvContactMargin     = "SOFTRIGID_CONTACT_MARGIN"
)

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a configuration from a JSON or YAML file, chosen by extension.
// Fields missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a JSON or YAML file, chosen by extension
func SaveConfig(config *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			MaxIterations:     20,
			ResidualTolerance: 1e-8,
			Parallel:          false,
			Workers:           4,
		},
		World: WorldConfig{
			TimeStep:      1.0 / 60,
			Gravity:       [3]float64{0, -9.8, 0},
			ContactMargin: 0.01,
			NodeFriction:  1,
		},
	}
}

// ApplyEnvironmentOverrides replaces values with those set in SOFTRIGID_* variables
func ApplyEnvironmentOverrides(config *Config) error {
	if v := os.Getenv(EnvMaxIterations); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxIterations, err)
		}
		config.Solver.MaxIterations = n
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		config.Solver.Workers = n
	}
	if v := os.Getenv(EnvParallel); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvParallel, err)
		}
		config.Solver.Parallel = b
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{EnvResidualTolerance, &config.Solver.ResidualTolerance},
		{EnvTimeStep, &config.World.TimeStep},
		{EnvContactMargin, &config.World.ContactMargin},
	}
	for _, f := range floats {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.env, err)
		}
		*f.dst = parsed
	}

	return config.Validate()
}

// Validate checks that every value is usable by the solver and world
func (c *Config) Validate() error {
	if err := validation.ValidateIterations(c.Solver.MaxIterations); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if err := validation.ValidateNonNegative("residual tolerance", c.Solver.ResidualTolerance); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if c.Solver.Workers < 1 {
		return fmt.Errorf("solver: workers must be at least 1: %d", c.Solver.Workers)
	}
	if err := validation.ValidatePositive("time step", c.World.TimeStep); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if err := validation.ValidateNonNegative("contact margin", c.World.ContactMargin); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	if err := validation.ValidateFriction(c.World.NodeFriction); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	return nil
}
