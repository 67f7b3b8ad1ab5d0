// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(chunks ...Chunk) <-chan Chunk {
	ch := make(chan Chunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

func TestConsumeAccumulatesInOrder(t *testing.T) {
	var seen []string
	res, err := Consume(context.Background(), feed(
		Chunk{Content: "a"},
		Chunk{Content: "b"},
		Chunk{Content: "c"},
	), func(s string) { seen = append(seen, s) })

	require.NoError(t, err)
	assert.Equal(t, "abc", res.Text)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.True(t, res.Streamed)
	assert.False(t, res.Truncated)
	assert.False(t, res.Cancelled)
}

func TestConsumeNilCallback(t *testing.T) {
	res, err := Consume(context.Background(), feed(Chunk{Content: "x"}), nil)
	require.NoError(t, err)
	assert.Equal(t, "x", res.Text)
}

func TestConsumeTruncatedKeepsPartial(t *testing.T) {
	streamErr := errors.New("connection reset")
	res, err := Consume(context.Background(), feed(
		Chunk{Content: "partial "},
		Chunk{Content: "output"},
		Chunk{Err: streamErr},
	), nil)

	assert.ErrorIs(t, err, streamErr)
	assert.Equal(t, "partial output", res.Text)
	assert.True(t, res.Truncated)
	assert.False(t, res.Cancelled)
}

func TestConsumeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan Chunk)
	go func() {
		ch <- Chunk{Content: "before "}
		ch <- Chunk{Content: "cancel"}
		cancel()
		// Channel intentionally left open: cancellation must end the
		// consume loop on its own.
	}()

	res, err := Consume(ctx, ch, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Cancelled)
	assert.False(t, res.Truncated)

	// Accumulated text is a prefix of the full response.
	assert.True(t, strings.HasPrefix("before cancel...", res.Text))
}

func TestConsumeCancellationErrChunk(t *testing.T) {
	// A producer that observes cancellation reports it as a chunk error;
	// the result is flagged Cancelled, not Truncated.
	res, err := Consume(context.Background(), feed(
		Chunk{Content: "part"},
		Chunk{Err: context.Canceled},
	), nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "part", res.Text)
	assert.True(t, res.Cancelled)
	assert.False(t, res.Truncated)
}

func TestConsumeMeasuresElapsed(t *testing.T) {
	res, err := Consume(context.Background(), feed(Chunk{Content: "x"}), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Elapsed.Nanoseconds(), int64(0))
}
