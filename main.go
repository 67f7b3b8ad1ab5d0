// xa - Execute Anything: a terminal front door to LLM prompt commands.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/xa/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdRun:
		return cli.HandleRun(args)
	case cli.CmdAsk:
		return cli.HandleAsk(args)
	case cli.CmdSetup:
		return cli.HandleSetup()
	case cli.CmdList:
		return cli.HandleList()
	case cli.CmdAdd:
		return cli.HandleAdd()
	case cli.CmdRemove:
		return cli.HandleRemove(args)
	case cli.CmdStore:
		return cli.HandleStore(args)
	case cli.CmdFind:
		return cli.HandleFind(args)
	case cli.CmdHistory:
		return cli.HandleHistory(args)
	case cli.CmdVersion:
		fmt.Printf("xa %s (%s, built %s)\n", cli.Version, cli.GitCommit, cli.BuildDate)
		return 0
	default:
		cli.Usage()
		return 0
	}
}
