// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for xa.
//
// Configuration lives in a single TOML file with sensible defaults and
// environment variable overrides:
//   - <user config dir>/xa/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/xa/internal/util"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config holds the API endpoint settings consumed by the completion client.
type Config struct {
	// BaseURL is the OpenAI-compatible API base URL (ends in /v1).
	BaseURL string `toml:"base_url"`

	// APIKey is the bearer credential for the API.
	// SECURITY: Never logged or printed; display uses a fingerprint only.
	APIKey string `toml:"api_key"`

	// DefaultModel is the model used when no --model flag is given.
	DefaultModel string `toml:"default_model"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		BaseURL:      "https://api.openai.com/v1",
		APIKey:       "",
		DefaultModel: "gpt-4o-mini",
	}
}

// IsConfigured reports whether an API key has been set.
func (c *Config) IsConfigured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Model returns the configured default model, falling back to the
// built-in default when unset.
func (c *Config) Model() string {
	if c.DefaultModel != "" {
		return c.DefaultModel
	}
	return Default().DefaultModel
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the xa configuration directory path.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(base, "xa"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions tightens permissions on config files.
// SECURITY: The config file holds the API key and must be 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, fills defaults, applies environment
// overrides, and validates the result. A missing file is not an error:
// defaults (plus env overrides) are returned.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaults.DefaultModel
	}
}

// Save writes the configuration to the default config file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to a TOML file.
// SECURITY: Written atomically with 0600 permissions (owner read/write only).
func SaveToPath(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# xa configuration file\n")
	buf.WriteString("# Generated by xa - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for structural problems.
// A missing API key is not a validation error; callers decide whether
// an unconfigured state is acceptable for the operation at hand.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ValidationError{Field: "base_url", Message: "must not be empty"}
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ValidationError{Field: "base_url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: "base_url", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - XA_BASE_URL: overrides base_url
//   - XA_API_KEY: overrides api_key
//   - XA_MODEL: overrides default_model
func (c *Config) ApplyEnvOverrides() {
	if baseURL := os.Getenv("XA_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if key := os.Getenv("XA_API_KEY"); key != "" {
		c.APIKey = key
	}
	if model := os.Getenv("XA_MODEL"); model != "" {
		c.DefaultModel = model
	}
}
