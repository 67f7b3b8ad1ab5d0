// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package output handles terminal presentation of completion results:
// markdown rendering, the result footer, and clipboard copy.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jeranaias/xa/internal/util"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsStdoutTTY returns true if stdout is a terminal. Markdown rendering and
// colors are disabled for piped output.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStdinTTY returns true if stdin is a terminal.
func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// TerminalWidth returns the stdout width, falling back to 80.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text when the renderer cannot initialize.
		markdownRenderer = nil
	}
}

// RenderMarkdown renders markdown for terminal display. On any rendering
// failure the original content is returned unchanged.
func RenderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// Display prints a response, rendering markdown only when stdout is a TTY
// so piped output stays clean.
func Display(response string) {
	if IsStdoutTTY() {
		fmt.Print(RenderMarkdown(response))
		if !strings.HasSuffix(response, "\n") {
			fmt.Println()
		}
	} else {
		fmt.Print(response)
		if !strings.HasSuffix(response, "\n") {
			fmt.Println()
		}
	}
}

// =============================================================================
// RESULT FOOTER
// =============================================================================

var (
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// Footer summarizes one invocation for display under the response.
type Footer struct {
	Text      string
	Elapsed   time.Duration
	Copied    bool
	Truncated bool
	Cancelled bool
}

// PrintFooter prints the result summary line to stderr, muted, so it never
// contaminates stdout. Nothing is printed when stdout is piped.
func PrintFooter(f Footer) {
	if !IsStdoutTTY() {
		return
	}

	parts := []string{fmt.Sprintf("%.1fs", f.Elapsed.Seconds())}
	parts = append(parts, fmt.Sprintf("~%d words", util.WordCount(f.Text)))
	if f.Copied {
		parts = append(parts, "copied to clipboard")
	}
	line := footerStyle.Render(strings.Join(parts, " · "))
	fmt.Fprintln(os.Stderr, line)

	switch {
	case f.Cancelled:
		fmt.Fprintln(os.Stderr, warnStyle.Render("[cancelled, output is partial]"))
	case f.Truncated:
		fmt.Fprintln(os.Stderr, warnStyle.Render("[stream interrupted, output is partial]"))
	}
}
