// Package config provides configuration loading and management for implantplanner.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Atlas lookup service parameters
	Atlas struct {
		// BaseURL is the slice lookup endpoint queried for each target
		BaseURL string `yaml:"baseURL"`

		// TimeoutSeconds bounds every HTTP round trip to the service
		TimeoutSeconds int `yaml:"timeoutSeconds"`
	} `yaml:"atlas"`

	// Implant geometry defaults
	Implant struct {
		// SpanMicrons is the distance between the left and right
		// electrode targets in microns
		SpanMicrons float64 `yaml:"spanMicrons"`

		// SkullMicrons is the skull thickness offset added to DV for
		// all bottom targets, in microns
		SkullMicrons float64 `yaml:"skullMicrons"`

		// MarkerRadius is the overlay circle radius in pixels
		MarkerRadius int `yaml:"markerRadius"`
	} `yaml:"implant"`

	// Output parameters
	Output struct {
		// Dir is the directory the rendered review grids are written to
		Dir string `yaml:"dir"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default atlas service parameters
	cfg.Atlas.BaseURL = "http://labs.gaidi.ca/rat-brain-atlas/api.php"
	cfg.Atlas.TimeoutSeconds = 30

	// Set default implant geometry
	cfg.Implant.SpanMicrons = 750
	cfg.Implant.SkullMicrons = 500
	cfg.Implant.MarkerRadius = 5

	// Set default output parameters
	cfg.Output.Dir = "review_grids"
	cfg.Output.Verbose = true

	return cfg
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
