// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseServer streams the given deltas as SSE events, then the [DONE] sentinel.
func sseServer(t *testing.T, deltas []string, perEventDelay time.Duration) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")

		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, delta := range deltas {
			if perEventDelay > 0 {
				time.Sleep(perEventDelay)
			}
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
}

func collect(t *testing.T, chunks <-chan Chunk) (string, error) {
	t.Helper()
	var sb strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return sb.String(), chunk.Err
		}
		sb.WriteString(chunk.Content)
	}
	return sb.String(), nil
}

func TestStreamDelivers(t *testing.T) {
	server := sseServer(t, []string{"Hello", ", ", "world"}, 0)
	defer server.Close()

	client := New(server.URL, testKey, "m")
	chunks, err := client.Stream(context.Background(), "hi")
	require.NoError(t, err)

	text, err := collect(t, chunks)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", text)
}

func TestStreamSkipsMalformedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"good\"}}]}\n\n")
		fmt.Fprint(w, "data: this is not json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" still good\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := New(server.URL, testKey, "m")
	chunks, err := client.Stream(context.Background(), "hi")
	require.NoError(t, err)

	text, err := collect(t, chunks)
	require.NoError(t, err)
	assert.Equal(t, "good still good", text)
}

func TestStreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer server.Close()

	client := New(server.URL, testKey, "m")
	_, err := client.Stream(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestStreamNotConfigured(t *testing.T) {
	client := New("https://api.example.com/v1", "", "m")
	_, err := client.Stream(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStreamAbruptCloseIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		flusher.Flush()
		// Drop the connection without [DONE].
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	client := New(server.URL, testKey, "m")
	chunks, err := client.Stream(context.Background(), "hi")
	require.NoError(t, err)

	text, err := collect(t, chunks)
	assert.Equal(t, "partial", text)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestStreamIdleTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"before silence\"}}]}\n\n")
		flusher.Flush()
		// Go silent for longer than the idle timeout.
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := New(server.URL, testKey, "m").WithIdleTimeout(100 * time.Millisecond)
	chunks, err := client.Stream(context.Background(), "hi")
	require.NoError(t, err)

	text, err := collect(t, chunks)
	assert.Equal(t, "before silence", text)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestStreamingMatchesNonStreaming(t *testing.T) {
	const full = "The quick brown fox jumps over the lazy dog."
	words := strings.SplitAfter(full, " ")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, word := range words {
				fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", word)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`, full)
	}))
	defer server.Close()

	client := New(server.URL, testKey, "m")

	batch, err := client.Complete(context.Background(), "hi")
	require.NoError(t, err)

	chunks, err := client.Stream(context.Background(), "hi")
	require.NoError(t, err)
	streamed, err := collect(t, chunks)
	require.NoError(t, err)

	assert.Equal(t, batch, streamed)
}
