// Package config provides configuration loading and validation for Troupe.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Standard config file location.
const defaultConfigPath = "~/.config/troupe/config.json"

// Config holds all Troupe configuration settings.
type Config struct {
	DataDir      string       `json:"data_dir"`      // Base directory for state shared across workspaces
	BranchPrefix string       `json:"branch_prefix"` // Prefix for branches created by runs
	LogLevel     string       `json:"log_level"`
	Submit       SubmitConfig `json:"submit"`

	// expandedPaths tracks whether ExpandPaths has been called.
	expandedPaths bool
}

// SubmitConfig holds settings for the session submission service.
type SubmitConfig struct {
	ServiceURL     string `json:"service_url"`
	Token          string `json:"token"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir:      "~/.local/share/troupe",
		BranchPrefix: "troupe/",
		LogLevel:     "info",
		Submit: SubmitConfig{
			TimeoutSeconds: 60,
		},
	}
}

// Load reads config from the standard location (~/.config/troupe/config.json),
// falling back to defaults if the file doesn't exist.
// Missing fields use default values (not zero values).
func Load() (*Config, error) {
	configPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// If the file doesn't exist, returns default config.
// If the file exists but is invalid, returns an error.
func LoadFromPath(path string) (*Config, error) {
	// Start with default config.
	cfg := DefaultConfig()

	// Check if config file exists.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// No config file - use all defaults.
		if err := cfg.ExpandPaths(); err != nil {
			return nil, fmt.Errorf("failed to expand paths: %w", err)
		}
		return cfg, nil
	}

	// Read the config file.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into a temporary struct for merging.
	var fileCfg fileConfig
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Merge file values over defaults (only set values).
	mergeConfig(cfg, &fileCfg)

	// Expand paths.
	if err := cfg.ExpandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	// Validate the merged config.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// fileConfig is used for parsing JSON with pointer fields to detect what was set.
type fileConfig struct {
	DataDir      *string           `json:"data_dir"`
	BranchPrefix *string           `json:"branch_prefix"`
	LogLevel     *string           `json:"log_level"`
	Submit       *fileSubmitConfig `json:"submit"`
}

type fileSubmitConfig struct {
	ServiceURL     *string `json:"service_url"`
	Token          *string `json:"token"`
	TimeoutSeconds *int    `json:"timeout_seconds"`
}

// mergeConfig merges file config values into the default config.
// Only non-nil values from the file config are applied.
func mergeConfig(cfg *Config, fileCfg *fileConfig) {
	if fileCfg.DataDir != nil {
		cfg.DataDir = *fileCfg.DataDir
	}
	if fileCfg.BranchPrefix != nil {
		cfg.BranchPrefix = *fileCfg.BranchPrefix
	}
	if fileCfg.LogLevel != nil {
		cfg.LogLevel = *fileCfg.LogLevel
	}

	if fileCfg.Submit != nil {
		if fileCfg.Submit.ServiceURL != nil {
			cfg.Submit.ServiceURL = *fileCfg.Submit.ServiceURL
		}
		if fileCfg.Submit.Token != nil {
			cfg.Submit.Token = *fileCfg.Submit.Token
		}
		if fileCfg.Submit.TimeoutSeconds != nil {
			cfg.Submit.TimeoutSeconds = *fileCfg.Submit.TimeoutSeconds
		}
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	var errs []error

	if c.BranchPrefix == "" {
		errs = append(errs, errors.New("branch_prefix must be non-empty"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if c.Submit.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("submit.timeout_seconds must be >= 1"))
	}

	// The submission service is optional, but if a URL is set it must be
	// a usable absolute URL.
	if c.Submit.ServiceURL != "" {
		u, err := url.Parse(c.Submit.ServiceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("submit.service_url is not a valid URL: %s", c.Submit.ServiceURL))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ExpandPaths expands ~ to home directory in all path fields.
func (c *Config) ExpandPaths() error {
	if c.expandedPaths {
		return nil
	}

	var err error

	c.DataDir, err = expandPath(c.DataDir)
	if err != nil {
		return fmt.Errorf("failed to expand data_dir: %w", err)
	}

	c.expandedPaths = true
	return nil
}

// GetDataDir returns the expanded data directory path.
func (c *Config) GetDataDir() string {
	return c.DataDir
}

// SubmitTimeout returns the submission request timeout as a duration.
func (c *Config) SubmitTimeout() time.Duration {
	return time.Duration(c.Submit.TimeoutSeconds) * time.Second
}

// expandPath expands ~ to the user's home directory.
// It also handles relative paths by making them absolute.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	// Expand ~
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	// Clean the path.
	return filepath.Clean(path), nil
}
