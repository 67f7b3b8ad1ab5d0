// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Truncate shortens s to at most maxWidth display cells, appending "..."
// when anything was cut. Rune-width aware so CJK text lines up.
func Truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces to the given display width.
// Strings already wider than width are returned unchanged.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// WordCount returns the number of whitespace-separated words in s.
// Used as a rough token estimate for the result footer.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
