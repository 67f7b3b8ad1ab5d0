// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompts.go - Registry management: list, add, remove.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/xa/internal/prompt"
	"github.com/jeranaias/xa/internal/util"
)

// HandleList prints every command, built-ins first, aligned.
func HandleList() int {
	reg, err := prompt.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	defaults := prompt.Defaults()
	var builtin, user []string
	for _, name := range reg.Names() {
		if _, ok := defaults[name]; ok {
			builtin = append(builtin, name)
		} else {
			user = append(user, name)
		}
	}

	width := 0
	for _, name := range reg.Names() {
		if len(name) > width {
			width = len(name)
		}
	}

	fmt.Println(titleStyle.Render("Built-in commands"))
	printCommands(reg, builtin, width)
	if len(user) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("User commands"))
		printCommands(reg, user, width)
	}
	return ExitOK
}

func printCommands(reg *prompt.Registry, names []string, width int) {
	for _, name := range names {
		cmd, _ := reg.Get(name)
		desc := cmd.Description
		if desc == "" {
			desc = util.Truncate(cmd.Template, 60)
		}
		fmt.Printf("  %s  %s\n",
			nameStyle.Render(util.PadRight(name, width)),
			dimStyle.Render(desc))
	}
}

// HandleAdd interactively creates a command. The template must carry the
// {input} placeholder; an existing name gets an overwrite warning.
func HandleAdd() int {
	reg, err := prompt.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	reader := bufio.NewReader(os.Stdin)

	name, err := promptLine(reader, "Command name: ")
	if err != nil || name == "" {
		errorf("command name is required")
		return ExitError
	}
	if _, exists := reg.Get(name); exists {
		fmt.Println(warnLine(fmt.Sprintf("Command %q already exists and will be overwritten.", name)))
	}

	template, err := promptLine(reader, "Template (must contain {input}): ")
	if err != nil || template == "" {
		errorf("template is required")
		return ExitError
	}
	if !strings.Contains(template, prompt.Placeholder) {
		errorf("template must contain the %s placeholder", prompt.Placeholder)
		return ExitMissingPlaceholder
	}

	desc, _ := promptLine(reader, "Description (optional): ")

	if err := reg.Add(name, prompt.Command{Template: template, Description: desc}); err != nil {
		errorf("%v", err)
		return ExitError
	}
	if err := prompt.Save(reg); err != nil {
		errorf("%v", err)
		return ExitError
	}

	fmt.Println(successStyle.Render("✓") + " Added command " + nameStyle.Render(name))
	return ExitOK
}

// HandleRemove deletes a command by exact name.
func HandleRemove(args Args) int {
	if args.Query == "" {
		errorf("usage: xa --rm <COMMAND_NAME>")
		return ExitError
	}

	reg, err := prompt.Load()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}

	if err := reg.Remove(args.Query); err != nil {
		errorf("%v", err)
		fmt.Fprintln(os.Stderr, dimStyle.Render("Available: "+strings.Join(reg.Names(), ", ")))
		return ExitError
	}
	if err := prompt.Save(reg); err != nil {
		errorf("%v", err)
		return ExitError
	}

	fmt.Println(successStyle.Render("✓") + " Removed command " + nameStyle.Render(args.Query))
	return ExitOK
}

func promptLine(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func warnLine(s string) string {
	return dimStyle.Render(s)
}
