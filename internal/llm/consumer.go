// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"strings"
	"time"
)

// =============================================================================
// STREAM CONSUMER
// =============================================================================

// Result is the outcome of one completion invocation. Text holds everything
// received, including partial output when Truncated or Cancelled is set.
type Result struct {
	Text      string
	Elapsed   time.Duration
	Streamed  bool
	Truncated bool
	Cancelled bool
}

// Consume drains a chunk stream, invoking onChunk for each piece of text as
// it arrives and accumulating the full response. On a mid-stream failure it
// returns the partial accumulation flagged Truncated together with the
// error; on context cancellation it stops reading and returns the partial
// accumulation flagged Cancelled. Output already shown is never discarded.
func Consume(ctx context.Context, chunks <-chan Chunk, onChunk func(string)) (*Result, error) {
	start := time.Now()
	var sb strings.Builder

	for {
		select {
		case <-ctx.Done():
			return &Result{
				Text:      sb.String(),
				Elapsed:   time.Since(start),
				Streamed:  true,
				Cancelled: true,
			}, ctx.Err()

		case chunk, ok := <-chunks:
			if !ok {
				return &Result{
					Text:     sb.String(),
					Elapsed:  time.Since(start),
					Streamed: true,
				}, nil
			}
			if chunk.Err != nil {
				res := &Result{
					Text:     sb.String(),
					Elapsed:  time.Since(start),
					Streamed: true,
				}
				if IsCancellation(chunk.Err) {
					res.Cancelled = true
				} else {
					res.Truncated = true
				}
				return res, chunk.Err
			}
			sb.WriteString(chunk.Content)
			if onChunk != nil {
				onChunk(chunk.Content)
			}
		}
	}
}
