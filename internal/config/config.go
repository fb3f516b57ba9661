package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	MinPasses = 1
	MaxPasses = 10

	maxChunkSize = 64 * 1024 * 1024
)

// Config is the on-disk configuration of datadestroyer.
type Config struct {
	Wipe struct {
		Mode         string  `yaml:"mode"`
		Passes       int     `yaml:"passes"`
		ChunkSize    int     `yaml:"chunk_size"`
		MaxSpeedMBps float64 `yaml:"max_speed_mbps"`
		ObscureNames bool    `yaml:"obscure_names"`
	} `yaml:"wipe"`

	Security struct {
		RequireConfirmation bool     `yaml:"require_confirmation"`
		ProtectedPaths      []string `yaml:"protected_paths"`
		WarnIfNotRoot       bool     `yaml:"warn_if_not_root"`
	} `yaml:"security"`

	Logging struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		Structured bool   `yaml:"structured"`
	} `yaml:"logging"`

	Reporting struct {
		Enabled   bool   `yaml:"enabled"`
		LocalPath string `yaml:"local_path"`
		Format    string `yaml:"format"`
	} `yaml:"reporting"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Wipe.Mode = "standard"
	cfg.Wipe.Passes = 3
	cfg.Wipe.ChunkSize = 4 * 1024 * 1024 // 4MB
	cfg.Wipe.MaxSpeedMBps = 0            // unlimited
	cfg.Wipe.ObscureNames = true

	cfg.Security.RequireConfirmation = true
	cfg.Security.ProtectedPaths = defaultProtectedPaths()
	cfg.Security.WarnIfNotRoot = true

	cfg.Logging.Level = "INFO"
	cfg.Logging.File = ""
	cfg.Logging.Structured = true

	cfg.Reporting.Enabled = false
	cfg.Reporting.LocalPath = "./reports"
	cfg.Reporting.Format = "json"

	return cfg
}

// Load reads a YAML config on top of Default. An empty path or a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks every section.
func Validate(config *Config) error {
	switch config.Wipe.Mode {
	case "standard":
		if config.Wipe.Passes < MinPasses || config.Wipe.Passes > MaxPasses {
			return fmt.Errorf("passes must be between %d and %d, got %d", MinPasses, MaxPasses, config.Wipe.Passes)
		}
	case "nsa":
		// fixed 4-pass sequence, passes is ignored
	default:
		return fmt.Errorf("invalid wipe mode: %s", config.Wipe.Mode)
	}

	if config.Wipe.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", config.Wipe.ChunkSize)
	}
	if config.Wipe.ChunkSize > maxChunkSize {
		return fmt.Errorf("chunk size too large (max 64MB), got %d", config.Wipe.ChunkSize)
	}

	if config.Wipe.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", config.Wipe.MaxSpeedMBps)
	}

	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
	}
	if !validLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	switch config.Reporting.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("invalid report format: %s", config.Reporting.Format)
	}
	if config.Reporting.Enabled && config.Reporting.LocalPath == "" {
		return fmt.Errorf("reporting is enabled but local_path is empty")
	}

	for _, path := range config.Security.ProtectedPaths {
		if path == "" {
			return fmt.Errorf("empty protected path")
		}
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
		if filepath.Clean(path) == string(filepath.Separator) {
			return fmt.Errorf("invalid protected path: %s", path)
		}
	}

	return nil
}

// Save validates config and writes it as YAML.
func Save(config *Config, path string) error {
	if err := Validate(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// defaultProtectedPaths are system locations no file may be destroyed under.
func defaultProtectedPaths() []string {
	return []string{
		"/bin",
		"/boot",
		"/dev",
		"/etc",
		"/lib",
		"/lib64",
		"/proc",
		"/sbin",
		"/sys",
		"/usr",
	}
}
