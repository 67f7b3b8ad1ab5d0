// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for xa's CLI output.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// init configures the lipgloss color profile. Colors are disabled for
// piped output and when NO_COLOR is set (https://no-color.org/).
func init() {
	lipgloss.SetColorProfile(colorProfile())
}

func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

var (
	// titleStyle is used for headers.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// successStyle marks completed operations.
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// errorStyle marks failures.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// dimStyle de-emphasizes secondary information.
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// nameStyle highlights command names in listings.
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))
)

// errorf prints a styled error line to stderr.
func errorf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), fmt.Sprintf(format, a...))
}
