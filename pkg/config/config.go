// Package config provides configuration loading and management for volclip.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default values. Each constant is the single source of truth for its
// setting: the same value seeds DefaultConfig and is used as the fallback
// when a loaded value fails validation.
const (
	DefaultRotationStepDeg = 1.0
	DefaultMaxUndo         = 10
	DefaultJPEGQuality     = 90
	DefaultDemoSize        = 128
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// General application behavior
	General struct {
		// RunMode selects the behavior profile ("development", "production", "verbose")
		RunMode string `yaml:"runMode"`

		// LoggingLevel controls log verbosity ("DEBUG", "INFO", "WARNING", "ERROR")
		LoggingLevel string `yaml:"loggingLevel"`
	} `yaml:"general"`

	// View parameters
	View struct {
		// RotationStepDeg is the camera rotation step per pixel of mouse movement
		RotationStepDeg float64 `yaml:"rotationStepDeg"`
	} `yaml:"view"`

	// Clipping parameters
	Clipping struct {
		// MaxUndo bounds the number of mask snapshots kept for undo
		MaxUndo int `yaml:"maxUndo"`
	} `yaml:"clipping"`

	// Output parameters
	Output struct {
		// JPEGQuality is the quality used when exporting derived slices
		JPEGQuality int `yaml:"jpegQuality"`

		// DemoSize is the edge length of the generated demo volume
		DemoSize int `yaml:"demoSize"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.General.RunMode = "production"
	cfg.General.LoggingLevel = "INFO"

	cfg.View.RotationStepDeg = DefaultRotationStepDeg

	cfg.Clipping.MaxUndo = DefaultMaxUndo

	cfg.Output.JPEGQuality = DefaultJPEGQuality
	cfg.Output.DemoSize = DefaultDemoSize

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
// Out-of-range values fall back to the same defaults DefaultConfig uses.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.validate()
	return cfg, nil
}

// validate clamps loaded values back to defaults when they are out of range.
func (c *Config) validate() {
	switch c.General.RunMode {
	case "development", "production", "verbose":
	default:
		c.General.RunMode = "production"
	}

	switch c.General.LoggingLevel {
	case "DEBUG", "INFO", "WARNING", "ERROR":
	default:
		c.General.LoggingLevel = "INFO"
	}

	if c.View.RotationStepDeg <= 0 || c.View.RotationStepDeg > 90 {
		c.View.RotationStepDeg = DefaultRotationStepDeg
	}

	if c.Clipping.MaxUndo < 1 {
		c.Clipping.MaxUndo = DefaultMaxUndo
	}

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		c.Output.JPEGQuality = DefaultJPEGQuality
	}

	if c.Output.DemoSize < 8 {
		c.Output.DemoSize = DefaultDemoSize
	}
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
