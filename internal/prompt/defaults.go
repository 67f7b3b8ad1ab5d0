// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

// Defaults returns the built-in prompt commands. These are written into
// prompts.toml on first run and merged back in whenever they are missing.
func Defaults() map[string]Command {
	return map[string]Command{
		"translate": {
			Template:    "You are a professional translator, please translate the following text into natural, idiomatic {target_lang}:\n\n{input}. Avoid output anything else except the final result.",
			Description: "Translate text (default target: zh)",
			Args: []Arg{
				{Name: "target_lang", Default: "zh", Description: "Target language for translation"},
			},
		},
		"polish": {
			Template:    "You are an expert editor. Please polish the following text to make it more clear, concise, and natural in a {tone} tone:\n\n{input}. Avoid output anything else except the final result.",
			Description: "Polish text for clarity",
			Args: []Arg{
				{Name: "tone", Default: "professional", Description: "Tone for polishing (e.g., casual, professional, friendly)"},
			},
		},
		"rewrite": {
			Template:    "You are a skilled writer. Please rewrite the following text in a {style} style while preserving the meaning:\n\n{input}. Avoid output anything else except the final result.",
			Description: "Rewrite text in different style",
			Args: []Arg{
				{Name: "style", Default: "formal", Description: "Writing style for rewrite (e.g., casual, formal, creative)"},
			},
		},
		"summarize": {
			Template:    "You are an expert summarizer. Please provide a concise summary of the following text with a {length} length:\n\n{input}. Avoid output anything else except the final result.",
			Description: "Summarize text",
			Args: []Arg{
				{Name: "length", Default: "medium", Description: "Summary length (e.g., short, medium, long)"},
			},
		},
		"ask": {
			Template:    "You are a helpful assistant called xa, execute anything by your side. {input}",
			Description: "Interactive conversation mode",
		},
	}
}
