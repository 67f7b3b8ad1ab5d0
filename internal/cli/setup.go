// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Configuration wizard for OpenAI-compatible endpoints.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jeranaias/xa/internal/config"
	"github.com/jeranaias/xa/internal/llm"
)

const setupValidateTimeout = 15 * time.Second

// HandleSetup walks through base URL, API key, and model selection. The key
// is validated by listing the endpoint's models; on failure the wizard falls
// back to manual model entry so an offline setup still completes.
func HandleSetup() int {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	fmt.Println(titleStyle.Render("xa setup"))
	fmt.Println(dimStyle.Render("Configure an OpenAI-compatible API endpoint."))
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	baseURL := promptWithDefault(reader, "Base URL", cfg.BaseURL)
	apiKey := promptSecret(reader, "API key")
	if apiKey == "" {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		errorf("an API key is required")
		return ExitError
	}

	cfg.BaseURL = baseURL
	cfg.APIKey = apiKey

	client := llm.New(cfg.BaseURL, cfg.APIKey, cfg.DefaultModel)
	model, ok := selectModel(reader, client, cfg.Model())
	if !ok {
		model = promptWithDefault(reader, "Model name", cfg.Model())
	}
	cfg.DefaultModel = model

	if err := config.Save(cfg); err != nil {
		errorf("%v", err)
		return ExitError
	}

	path, _ := config.Path()
	fmt.Println()
	fmt.Println(successStyle.Render("✓") + " Configuration saved to " + dimStyle.Render(path))
	fmt.Println(dimStyle.Render("Key fingerprint: " + client.KeyFingerprint()))
	return ExitOK
}

// selectModel validates the endpoint by listing models and offers a numbered
// pick. Returns false when the listing failed and manual entry is needed.
func selectModel(reader *bufio.Reader, client *llm.Client, current string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), setupValidateTimeout)
	defer cancel()

	fmt.Println(dimStyle.Render("Validating API key..."))
	models, err := client.ListModels(ctx)
	if err != nil || len(models) == 0 {
		if err != nil {
			fmt.Fprintln(os.Stderr, warnLine(fmt.Sprintf("Could not list models: %v", err)))
		}
		return "", false
	}

	fmt.Println(successStyle.Render("✓") + " API key is valid")
	fmt.Println()
	fmt.Println("Available models:")
	for i, m := range models {
		fmt.Printf("  %2d. %s\n", i+1, nameStyle.Render(m.ID))
	}
	fmt.Printf("  %2d. %s\n", len(models)+1, dimStyle.Render("enter a custom model name"))

	choice := promptWithDefault(reader, "Select a model", current)
	if choice == current {
		return current, true
	}
	if n, err := strconv.Atoi(choice); err == nil {
		if n >= 1 && n <= len(models) {
			return models[n-1].ID, true
		}
		if n == len(models)+1 {
			return promptWithDefault(reader, "Model name", current), true
		}
	}
	// A non-numeric answer is taken as the model name itself.
	return choice, true
}

func promptWithDefault(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return defaultVal
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

// promptSecret reads without echo on a terminal, falling back to a plain
// read when stdin is piped.
func promptSecret(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(keyBytes))
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
