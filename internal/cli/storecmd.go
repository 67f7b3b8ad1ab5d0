// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// storecmd.go - Secret store commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jeranaias/xa/internal/config"
	"github.com/jeranaias/xa/internal/llm"
	"github.com/jeranaias/xa/internal/output"
	"github.com/jeranaias/xa/internal/store"
)

// HandleStore saves a secret under a model-generated tag.
func HandleStore(args Args) int {
	if args.Secret == "" || args.Note == "" {
		errorf("usage: xa store add <SECRET> <NOTE...>")
		return ExitError
	}

	client, code := storeClient(args)
	if client == nil {
		return code
	}

	st, err := store.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tag, err := st.Add(ctx, client, args.Secret, args.Note)
	if err != nil {
		errorf("%v", err)
		return ExitCode(err)
	}
	if err := store.Save(st); err != nil {
		errorf("%v", err)
		return ExitError
	}

	fmt.Println(successStyle.Render("✓") + " Stored as " + nameStyle.Render(tag))
	return ExitOK
}

// HandleFind asks the model which stored entry matches the query and prints
// its secret. The secrets themselves never travel to the model.
func HandleFind(args Args) int {
	if args.Query == "" {
		errorf("usage: xa store find <QUERY...>")
		return ExitError
	}

	client, code := storeClient(args)
	if client == nil {
		return code
	}

	st, err := store.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	secret, found, err := st.Search(ctx, client, args.Query)
	if err != nil {
		errorf("%v", err)
		return ExitCode(err)
	}
	if !found {
		fmt.Println("No found such thing.")
		return ExitOK
	}

	fmt.Println(secret)
	if output.IsStdoutTTY() && output.CopyToClipboard(secret) {
		fmt.Fprintln(os.Stderr, dimStyle.Render("copied to clipboard"))
	}
	return ExitOK
}

func storeClient(args Args) (*llm.Client, int) {
	cfg, err := config.Load()
	if err != nil {
		errorf("%v", err)
		return nil, ExitError
	}
	client := newClient(cfg, args.Model)
	if !client.IsConfigured() {
		errorf("%v", llm.ErrNotConfigured)
		return nil, ExitAuth
	}
	return client, ExitOK
}
