// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"strings"

	"github.com/atotto/clipboard"
)

// CopyToClipboard writes text to the system clipboard. Returns false when no
// clipboard is available (headless session) or the write fails; callers treat
// this as cosmetic, never fatal.
func CopyToClipboard(text string) bool {
	if clipboard.Unsupported {
		return false
	}
	if err := clipboard.WriteAll(strings.TrimRight(text, "\n")); err != nil {
		return false
	}
	return true
}
