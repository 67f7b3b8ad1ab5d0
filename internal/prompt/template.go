// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"errors"
	"strings"
)

// =============================================================================
// TEMPLATE RENDERING
// =============================================================================

// Placeholder is the token within a template replaced by the user's input.
const Placeholder = "{input}"

// ErrMissingPlaceholder means a template has no {input} placeholder, so the
// caller's input would be silently discarded. This is a configuration error
// the user must fix in prompts.toml.
var ErrMissingPlaceholder = errors.New("template has no {input} placeholder")

// Render substitutes input for every occurrence of {input} in the command's
// template, then fills the command's named arguments from extras in order,
// falling back to each argument's default. Substitution is verbatim, with no
// escaping and no recursive expansion.
func Render(cmd Command, input string, extras []string) (string, error) {
	if !strings.Contains(cmd.Template, Placeholder) {
		return "", ErrMissingPlaceholder
	}

	out := strings.ReplaceAll(cmd.Template, Placeholder, input)

	for i, arg := range cmd.Args {
		value := arg.Default
		if i < len(extras) {
			value = extras[i]
		}
		out = strings.ReplaceAll(out, "{"+arg.Name+"}", value)
	}

	return out, nil
}
