// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.DefaultModel)
	assert.False(t, cfg.IsConfigured())
}

func TestLoadFromPathMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, Default().BaseURL, cfg.BaseURL)
	assert.Equal(t, Default().DefaultModel, cfg.DefaultModel)
}

func TestLoadFromPathFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`api_key = "sk-test"`+"\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, Default().BaseURL, cfg.BaseURL)
	assert.Equal(t, Default().DefaultModel, cfg.DefaultModel)
	assert.True(t, cfg.IsConfigured())
}

func TestLoadFromPathInvalidBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`base_url = "ftp://example.com"`+"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestLoadFromPathFixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`api_key = "sk-test"`+"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XA_BASE_URL", "https://openrouter.ai/api/v1")
	t.Setenv("XA_API_KEY", "sk-env")
	t.Setenv("XA_MODEL", "gpt-4o")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`api_key = "sk-file"`+"\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	// Environment wins over file values.
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.DefaultModel)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	want := &Config{
		BaseURL:      "https://openrouter.ai/api/v1",
		APIKey:       "sk-or-test",
		DefaultModel: "anthropic/claude-3.5-haiku",
	}
	require.NoError(t, SaveToPath(want, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, want.BaseURL, got.BaseURL)
	assert.Equal(t, want.APIKey, got.APIKey)
	assert.Equal(t, want.DefaultModel, got.DefaultModel)
}

func TestModelFallback(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "gpt-4o-mini", cfg.Model())

	cfg.DefaultModel = "gpt-4o"
	assert.Equal(t, "gpt-4o", cfg.Model())
}
