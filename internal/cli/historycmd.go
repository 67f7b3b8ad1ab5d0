// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// historycmd.go - Invocation history listing.
package cli

import (
	"fmt"
	"strconv"

	"github.com/jeranaias/xa/internal/history"
	"github.com/jeranaias/xa/internal/util"
)

// HandleHistory prints recent invocations, newest first.
func HandleHistory(args Args) int {
	limit := history.DefaultLimit
	if args.Query != "" {
		n, err := strconv.Atoi(args.Query)
		if err != nil || n < 1 {
			errorf("invalid history count %q", args.Query)
			return ExitError
		}
		limit = n
	}

	path, err := history.DefaultPath()
	if err != nil {
		errorf("%v", err)
		return ExitError
	}
	db, err := history.Open(path)
	if err != nil {
		errorf("%v", err)
		return ExitError
	}
	defer db.Close()

	records, err := db.Recent(limit)
	if err != nil {
		errorf("%v", err)
		return ExitError
	}
	if len(records) == 0 {
		fmt.Println(dimStyle.Render("No history yet."))
		return ExitOK
	}

	for _, rec := range records {
		marker := " "
		if rec.Truncated {
			marker = "!"
		}
		fmt.Printf("%s %s  %s  %s  %s\n",
			marker,
			dimStyle.Render(rec.CreatedAt.Local().Format("2006-01-02 15:04")),
			nameStyle.Render(util.PadRight(rec.Command, 12)),
			util.PadRight(util.Truncate(rec.Input, 40), 40),
			dimStyle.Render(fmt.Sprintf("%-18s %.1fs", rec.Model, rec.Elapsed.Seconds())))
	}
	return ExitOK
}
