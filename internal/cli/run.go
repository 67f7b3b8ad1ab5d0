// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - Command invocation pipeline: resolve, render, request, present.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/jeranaias/xa/internal/config"
	"github.com/jeranaias/xa/internal/history"
	"github.com/jeranaias/xa/internal/llm"
	"github.com/jeranaias/xa/internal/output"
	"github.com/jeranaias/xa/internal/prompt"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// Exit codes distinguish every failure class so scripts can branch on them.
const (
	ExitOK                 = 0
	ExitError              = 1
	ExitNoMatch            = 2
	ExitAmbiguous          = 3
	ExitMissingPlaceholder = 4
	ExitAuth               = 5
	ExitRateLimited        = 6
	ExitServer             = 7
	ExitNetwork            = 8
	ExitMalformed          = 9
	ExitCancelled          = 10
	ExitTruncated          = 11
)

// ExitCode maps an invocation error to its process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, prompt.ErrMissingPlaceholder):
		return ExitMissingPlaceholder
	case errors.Is(err, llm.ErrNotConfigured), errors.Is(err, llm.ErrAuth):
		return ExitAuth
	case errors.Is(err, llm.ErrRateLimited):
		return ExitRateLimited
	case errors.Is(err, llm.ErrServer):
		return ExitServer
	case errors.Is(err, llm.ErrNetwork):
		return ExitNetwork
	case errors.Is(err, llm.ErrMalformed):
		return ExitMalformed
	case llm.IsCancellation(err):
		return ExitCancelled
	default:
		return ExitError
	}
}

// =============================================================================
// RUN PIPELINE
// =============================================================================

// HandleRun resolves the typed token against the registry, renders the
// command's template, invokes the model, and presents the response. Partial
// output from an interrupted stream is kept on screen and flagged in both
// the footer and the exit code.
func HandleRun(args Args) int {
	cfg, err := config.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	reg, err := prompt.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	match := prompt.Resolve(args.Token, reg.Names())
	switch match.Kind {
	case prompt.MatchNone:
		errorf("unknown command %q", args.Token)
		fmt.Fprintln(os.Stderr, dimStyle.Render("Run 'xa --ls' to see available commands."))
		return ExitNoMatch
	case prompt.MatchAmbiguous:
		errorf("%q matches several commands:", args.Token)
		for _, name := range match.Candidates {
			fmt.Fprintf(os.Stderr, "  %s\n", nameStyle.Render(name))
		}
		return ExitAmbiguous
	}

	cmd, ok := reg.Get(match.Name)
	if !ok {
		errorf("unknown command %q", match.Name)
		return ExitNoMatch
	}

	// Show which command a fuzzy token resolved to.
	if match.Kind == prompt.MatchFuzzy && output.IsStdoutTTY() {
		fmt.Fprintln(os.Stderr, dimStyle.Render("→ "+match.Name))
	}

	rendered, err := prompt.Render(cmd, args.Input, args.Extras)
	if err != nil {
		errorf("command %q: %v", match.Name, err)
		return ExitCode(err)
	}

	client := newClient(cfg, args.Model)
	if !client.IsConfigured() {
		errorf("%v", llm.ErrNotConfigured)
		return ExitAuth
	}

	// Ctrl-C cancels the request; whatever already streamed stays visible.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, invokeErr := invoke(ctx, client, rendered, args.NoStream)
	if res == nil {
		errorf("%v", invokeErr)
		return ExitCode(invokeErr)
	}

	present(args, res)
	recordHistory(match.Name, args.Input, client.Model(), res)

	switch {
	case res.Cancelled:
		return ExitCancelled
	case res.Truncated:
		errorf("%v", invokeErr)
		return ExitTruncated
	case invokeErr != nil:
		errorf("%v", invokeErr)
		return ExitCode(invokeErr)
	}
	return ExitOK
}

// newClient builds the completion client from config, honoring a per-run
// model override.
func newClient(cfg *config.Config, modelOverride string) *llm.Client {
	model := cfg.Model()
	if modelOverride != "" {
		model = modelOverride
	}
	return llm.New(cfg.BaseURL, cfg.APIKey, model)
}

// invoke runs one completion. Streaming prints chunks as they arrive; the
// non-streaming path shows a spinner while the full response is assembled.
// A nil result means the request failed before any output was produced.
func invoke(ctx context.Context, client *llm.Client, rendered string, noStream bool) (*llm.Result, error) {
	if noStream {
		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		sp.Suffix = " Processing..."
		if output.IsStdoutTTY() {
			sp.Start()
		}
		start := time.Now()
		text, err := client.Complete(ctx, rendered)
		sp.Stop()
		if err != nil {
			return nil, err
		}
		return &llm.Result{Text: text, Elapsed: time.Since(start)}, nil
	}

	chunks, err := client.Stream(ctx, rendered)
	if err != nil {
		return nil, err
	}
	res, err := llm.Consume(ctx, chunks, func(s string) {
		fmt.Print(s)
	})
	return res, err
}

// present shows the response and the footer. Streamed output is already on
// screen, so only the trailing newline is fixed up; non-streamed responses
// get the markdown treatment.
func present(args Args, res *llm.Result) {
	if res.Streamed {
		if res.Text != "" && !strings.HasSuffix(res.Text, "\n") {
			fmt.Println()
		}
	} else {
		output.Display(res.Text)
	}

	copied := false
	if !args.NoCopy && res.Text != "" && !res.Cancelled && !res.Truncated {
		copied = output.CopyToClipboard(res.Text)
	}

	output.PrintFooter(output.Footer{
		Text:      res.Text,
		Elapsed:   res.Elapsed,
		Copied:    copied,
		Truncated: res.Truncated,
		Cancelled: res.Cancelled,
	})
}

// recordHistory persists the invocation. Best effort: a broken history
// database never fails the run.
func recordHistory(command, input, model string, res *llm.Result) {
	path, err := history.DefaultPath()
	if err != nil {
		return
	}
	db, err := history.Open(path)
	if err != nil {
		return
	}
	defer db.Close()

	_ = db.Add(history.Record{
		Command:   command,
		Input:     input,
		Response:  res.Text,
		Model:     model,
		Elapsed:   res.Elapsed,
		Truncated: res.Truncated,
	})
}
