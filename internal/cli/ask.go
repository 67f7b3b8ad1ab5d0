// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Interactive conversation mode.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/xa/internal/config"
	"github.com/jeranaias/xa/internal/llm"
	"github.com/jeranaias/xa/internal/output"
	"github.com/jeranaias/xa/internal/prompt"
)

const askHistoryFile = "ask_history"

// HandleAsk runs the interactive ask loop: read a line, stream the answer,
// repeat. "exit" or "quit" leaves the loop; Ctrl-C during generation
// cancels only the current answer.
func HandleAsk(args Args) int {
	cfg, err := config.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	client := newClient(cfg, args.Model)
	if !client.IsConfigured() {
		errorf("%v", llm.ErrNotConfigured)
		return ExitAuth
	}

	reg, err := prompt.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}
	askCmd, ok := reg.Get("ask")
	if !ok {
		errorf("the 'ask' command is missing from the registry")
		return ExitError
	}

	fmt.Println(titleStyle.Render("xa interactive mode"))
	fmt.Println(dimStyle.Render("Type 'exit' or 'quit' to leave."))
	fmt.Println()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := askHistoryPath()
	loadLineHistory(line, histPath)
	defer saveLineHistory(line, histPath)

	for {
		input, err := line.Prompt("xa> ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Println()
			return ExitOK
		case err != nil:
			errorf("%v", err)
			return ExitError
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return ExitOK
		}
		line.AppendHistory(input)

		rendered, err := prompt.Render(askCmd, input, nil)
		if err != nil {
			errorf("%v", err)
			continue
		}
		askOnce(client, rendered)
		fmt.Println()
	}
}

// askOnce streams a single answer. Failures never end the loop.
func askOnce(client *llm.Client, rendered string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chunks, err := client.Stream(ctx, rendered)
	if err != nil {
		errorf("%v", err)
		return
	}

	res, err := llm.Consume(ctx, chunks, func(s string) {
		fmt.Print(s)
	})
	if res.Text != "" && !strings.HasSuffix(res.Text, "\n") {
		fmt.Println()
	}
	switch {
	case res.Cancelled:
		fmt.Fprintln(os.Stderr, dimStyle.Render("[cancelled]"))
	case err != nil:
		errorf("%v", err)
	default:
		output.PrintFooter(output.Footer{Text: res.Text, Elapsed: res.Elapsed})
	}
}

func askHistoryPath() string {
	dir, err := config.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, askHistoryFile)
}

func loadLineHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.ReadHistory(f)
}

func saveLineHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := config.EnsureDir(); err != nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
