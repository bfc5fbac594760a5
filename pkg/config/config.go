// Package config provides configuration loading and management for boxsmooth3d.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"boxsmooth3d/pkg/smoothing"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Workers is the number of goroutines that filter regions in parallel
		Workers int `yaml:"workers"`

		// ChunksPerWorker controls how finely the interior region is split
		ChunksPerWorker int `yaml:"chunksPerWorker"`

		// BoundaryPolicy is "extend" (clamp to edge) or "exclude" (copy the outer shell)
		BoundaryPolicy string `yaml:"boundaryPolicy"`

		// Radius of the box kernel; only 1 is supported
		Radius int `yaml:"radius"`

		// MaxVoxels rejects larger volumes before allocating; 0 disables the limit
		MaxVoxels int64 `yaml:"maxVoxels"`
	} `yaml:"processing"`

	// Input parameters
	Input struct {
		// Path is a raw volume (.raw with a .yaml header) or a directory of slice images
		Path string `yaml:"path"`

		// ScalarType is the sample type used for slice directories
		ScalarType string `yaml:"scalarType"`

		// Spacing is the voxel size in mm applied to slice directories
		Spacing [3]float64 `yaml:"spacing"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// Path is where the smoothed raw volume is written
		Path string `yaml:"path"`

		// ExportSlices saves orthogonal JPEG slices of the result
		ExportSlices bool `yaml:"exportSlices"`

		// SlicesDir is the directory slices are exported to
		SlicesDir string `yaml:"slicesDir"`

		// Report prints input/output statistics after filtering
		Report bool `yaml:"report"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is one of trace, debug, info, warn, error
		Level string `yaml:"level"`

		// Format is "console" or "json"
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.ChunksPerWorker = 4
	cfg.Processing.BoundaryPolicy = "extend"
	cfg.Processing.Radius = 1

	// Set default input parameters
	cfg.Input.ScalarType = "float32"
	cfg.Input.Spacing = [3]float64{1, 1, 1}

	// Set default output parameters
	cfg.Output.Path = "smoothed.raw"
	cfg.Output.SlicesDir = "smoothed_slices"
	cfg.Output.Report = true

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	return cfg
}

// Validate checks the values that cannot be repaired by defaults.
func (c *Config) Validate() error {
	var errs []error
	if c.Processing.Workers < 0 {
		errs = append(errs, fmt.Errorf("processing.workers must not be negative, got %d", c.Processing.Workers))
	}
	if c.Processing.ChunksPerWorker < 0 {
		errs = append(errs, fmt.Errorf("processing.chunksPerWorker must not be negative, got %d", c.Processing.ChunksPerWorker))
	}
	if c.Processing.Radius != 1 {
		errs = append(errs, fmt.Errorf("processing.radius must be 1, got %d", c.Processing.Radius))
	}
	if _, err := smoothing.ParseBoundaryPolicy(c.Processing.BoundaryPolicy); err != nil {
		errs = append(errs, fmt.Errorf("processing.boundaryPolicy: %w", err))
	}
	if c.Processing.MaxVoxels < 0 {
		errs = append(errs, fmt.Errorf("processing.maxVoxels must not be negative, got %d", c.Processing.MaxVoxels))
	}
	for i, s := range c.Input.Spacing {
		if s <= 0 {
			errs = append(errs, fmt.Errorf("input.spacing[%d] must be positive, got %g", i, s))
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
