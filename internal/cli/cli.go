// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for xa.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdRun Command = iota // resolve a prompt command and invoke the model
	CmdAsk                // interactive conversation mode
	CmdSetup              // configuration wizard (--set)
	CmdList               // list prompt commands (--ls)
	CmdAdd                // add a prompt command (--add)
	CmdRemove             // remove a prompt command (--rm)
	CmdStore              // store a secret (--store)
	CmdFind               // find a stored secret (--find)
	CmdHistory            // show invocation history (--history)
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// NoStream forces the non-streaming request path.
	NoStream bool

	// NoCopy skips the clipboard copy after a successful response.
	NoCopy bool

	// Model overrides the configured default model for this invocation.
	Model string

	// Token is the typed command name, possibly abbreviated.
	Token string

	// Input is the free text handed to the template.
	Input string

	// Extras are positional arguments after the input, filling named
	// template arguments.
	Extras []string

	// Query carries the argument of --rm, "store find", or "history".
	Query string

	// Secret and Note carry the arguments of "store add".
	Secret string
	Note   string
}

const usageText = `xa - Execute Anything via LLM

USAGE:
    xa [OPTIONS] [COMMAND] [INPUT] [ARGS...]
    xa store add <SECRET> <NOTE...>
    xa store find <QUERY...>
    xa history [N]

OPTIONS:
    -s, --set [PROVIDER]        Configure API settings (default: openai)
    -l, --ls                    List all available commands
    -a, --add                   Add a new command/prompt
    -r, --rm <COMMAND_NAME>     Remove a command/prompt
    -m, --model <NAME>          Override the configured model
        --no-stream             Disable streaming mode
        --no-copy               Skip copying the response to the clipboard
    -v, --version               Show version

EXAMPLES:
    xa --set                     # Configure an OpenAI-compatible API
    xa --ls                      # List all commands
    xa --add                     # Add a new command
    xa --rm summarize            # Remove the 'summarize' command
    xa translate "Hello"         # Translate text
    xa trans "Hello" fr          # Fuzzy match, target language override
    xa polish "draft" --no-stream
    xa ask                       # Interactive conversation mode
    xa store add hunter2 "staging db password"
    xa store find "password for the staging database"`

// Usage prints the help text.
func Usage() {
	fmt.Println(usageText)
}

// Parse inspects os.Args and returns the command to run plus its arguments.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs is Parse over an explicit argument slice.
func ParseArgs(argv []string) (Command, Args) {
	var args Args
	var positional []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "-s", "--set":
			return CmdSetup, args
		case "-l", "--ls":
			return CmdList, args
		case "-a", "--add":
			return CmdAdd, args
		case "-r", "--rm":
			if i+1 < len(argv) {
				args.Query = argv[i+1]
			}
			return CmdRemove, args
		case "-m", "--model":
			if i+1 < len(argv) {
				args.Model = argv[i+1]
				i++
			}
		case "--no-stream":
			args.NoStream = true
		case "--no-copy":
			args.NoCopy = true
		case "-v", "--version":
			return CmdVersion, args
		case "-h", "--help":
			return CmdHelp, args
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) == 0 {
		return CmdHelp, args
	}

	// Subcommands with their own argument shape.
	switch positional[0] {
	case "store":
		if len(positional) < 2 {
			return CmdHelp, args
		}
		switch positional[1] {
		case "add":
			if len(positional) > 2 {
				args.Secret = positional[2]
			}
			if len(positional) > 3 {
				args.Note = strings.Join(positional[3:], " ")
			}
			return CmdStore, args
		case "find":
			args.Query = strings.Join(positional[2:], " ")
			return CmdFind, args
		}
		return CmdHelp, args
	case "history":
		if len(positional) > 1 {
			args.Query = positional[1]
		}
		return CmdHistory, args
	}

	args.Token = positional[0]
	if len(positional) > 1 {
		args.Input = positional[1]
	}
	if len(positional) > 2 {
		args.Extras = positional[2:]
	}

	// Bare "ask" with streaming enabled enters the interactive loop;
	// "ask" with input behaves like any other command.
	if strings.EqualFold(args.Token, "ask") && args.Input == "" && !args.NoStream {
		return CmdAsk, args
	}

	return CmdRun, args
}
