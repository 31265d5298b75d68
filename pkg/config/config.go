// Package config provides configuration loading and management for labelrag.
// It handles loading configuration from YAML or TOML files and provides
// default values.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML or TOML
type Config struct {
	// Input locations
	Input struct {
		// LabelsDir holds one image per z-slice of the superpixel volume
		LabelsDir string `yaml:"labelsDir" toml:"labelsDir"`

		// ValuesDir holds the intensity slices features are computed from
		ValuesDir string `yaml:"valuesDir" toml:"valuesDir"`

		// GroundtruthDir holds the reference segmentation slices
		GroundtruthDir string `yaml:"groundtruthDir" toml:"groundtruthDir"`
	} `yaml:"input" toml:"input"`

	// Processing parameters
	Processing struct {
		// Workers bounds the number of axes processed concurrently
		Workers int `yaml:"workers" toml:"workers"`

		// Features lists the feature names to compute per edge
		Features []string `yaml:"features" toml:"features"`
	} `yaml:"processing" toml:"processing"`

	// Output parameters
	Output struct {
		// Dir receives the exported Arrow tables
		Dir string `yaml:"dir" toml:"dir"`

		// Compress enables zstd compression of exported tables
		Compress bool `yaml:"compress" toml:"compress"`

		// Verbose lowers the log level to debug
		Verbose bool `yaml:"verbose" toml:"verbose"`
	} `yaml:"output" toml:"output"`

	// Logging parameters
	Logging struct {
		// File, when set, sends logs to a rotated file instead of stderr
		File string `yaml:"file" toml:"file"`

		// MaxSizeMB is the size at which the log file is rotated
		MaxSizeMB int `yaml:"maxSizeMB" toml:"maxSizeMB"`

		// MaxAgeDays is how long rotated files are kept
		MaxAgeDays int `yaml:"maxAgeDays" toml:"maxAgeDays"`

		// Level is a zerolog level name
		Level string `yaml:"level" toml:"level"`
	} `yaml:"logging" toml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.LabelsDir = "labels"

	cfg.Processing.Workers = runtime.NumCPU()
	cfg.Processing.Features = []string{
		"edge_count", "edge_mean", "edge_variance",
		"sp_count", "sp_mean",
	}

	cfg.Output.Dir = "output"
	cfg.Output.Verbose = false

	cfg.Logging.MaxSizeMB = 100
	cfg.Logging.MaxAgeDays = 28
	cfg.Logging.Level = "info"

	return cfg
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by the
// file extension. If the file doesn't exist, it returns the default
// configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration, as TOML when the path ends in .toml
// and as YAML otherwise
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
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
