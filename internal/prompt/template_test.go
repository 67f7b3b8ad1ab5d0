// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesInput(t *testing.T) {
	cmd := Command{Template: "Translate to English: {input}"}

	out, err := Render(cmd, "Bonjour", nil)
	require.NoError(t, err)
	assert.Equal(t, "Translate to English: Bonjour", out)
}

func TestRenderReplacesEveryOccurrence(t *testing.T) {
	cmd := Command{Template: "{input} -- {input}"}

	out, err := Render(cmd, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi -- hi", out)
}

func TestRenderVerbatimNoRecursion(t *testing.T) {
	// Input containing the placeholder token is substituted literally,
	// not expanded again.
	cmd := Command{Template: "echo {input}"}

	out, err := Render(cmd, "{input}", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo {input}", out)
}

func TestRenderMissingPlaceholder(t *testing.T) {
	cmd := Command{Template: "no placeholder here"}

	_, err := Render(cmd, "ignored", nil)
	assert.ErrorIs(t, err, ErrMissingPlaceholder)
}

func TestRenderNamedArgDefaults(t *testing.T) {
	cmd := Defaults()["translate"]

	out, err := Render(cmd, "Bonjour", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "idiomatic zh")
	assert.Contains(t, out, "Bonjour")
	assert.NotContains(t, out, "{target_lang}")
}

func TestRenderNamedArgOverride(t *testing.T) {
	cmd := Defaults()["translate"]

	out, err := Render(cmd, "Bonjour", []string{"French"})
	require.NoError(t, err)
	assert.Contains(t, out, "idiomatic French")
}

func TestRenderExtraArgsBeyondDeclared(t *testing.T) {
	cmd := Defaults()["polish"]

	out, err := Render(cmd, "text", []string{"casual", "unused"})
	require.NoError(t, err)
	assert.Contains(t, out, "casual tone")
}
