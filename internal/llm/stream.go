// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// =============================================================================
// STREAMING TYPES
// =============================================================================

// Chunk is one unit of incrementally delivered text. A terminal failure is
// delivered as a final chunk with Err set; the channel is closed afterward.
// Concatenating the Content of all chunks in order reconstructs the response
// text received so far.
type Chunk struct {
	Content string
	Err     error
}

// streamEvent mirrors one SSE data payload from the completions endpoint.
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (e *streamEvent) content() string {
	if len(e.Choices) > 0 {
		return e.Choices[0].Delta.Content
	}
	return ""
}

func (e *streamEvent) done() bool {
	return len(e.Choices) > 0 && e.Choices[0].FinishReason != ""
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a response body.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader wraps an io.Reader for SSE parsing.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadData returns the data payload of the next event. Non-data fields
// (event:, id:, retry:, comments) are skipped. Returns io.EOF at stream end.
func (s *SSEReader) ReadData() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line terminates an event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
	}
}

// =============================================================================
// STREAMING COMPLETION
// =============================================================================

// Stream issues a streaming chat completion and returns a channel of chunks.
// The channel is closed when the stream ends, fails, or the context is
// cancelled; the response body is closed on every exit path. Individual
// malformed event payloads are skipped. If no event arrives within the idle
// timeout the stream is aborted with ErrNetwork.
func (c *Client) Stream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: []ChatMessage{NewUserMessage(prompt)},
		Stream:   true,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamHTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, errorFromResponse(resp, body)
	}

	chunks := make(chan Chunk, 64)
	go c.consumeSSE(ctx, resp.Body, chunks)
	return chunks, nil
}

// consumeSSE reads the SSE body and forwards text deltas onto the channel.
func (c *Client) consumeSSE(ctx context.Context, body io.ReadCloser, chunks chan<- Chunk) {
	defer close(chunks)
	defer body.Close()

	// Idle watchdog: a stream that goes silent past the idle timeout has
	// its body closed, which unblocks the pending read with an error.
	var idle atomic.Bool
	watchdog := time.AfterFunc(c.idleTimeout, func() {
		idle.Store(true)
		body.Close()
	})
	defer watchdog.Stop()

	reader := NewSSEReader(body)

	for {
		data, err := reader.ReadData()
		watchdog.Reset(c.idleTimeout)

		if err != nil {
			if err == io.EOF {
				return
			}
			switch {
			case ctx.Err() != nil:
				chunks <- Chunk{Err: ctx.Err()}
			case idle.Load():
				chunks <- Chunk{Err: fmt.Errorf("%w: no data received for %v", ErrNetwork, c.idleTimeout)}
			default:
				chunks <- Chunk{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
			}
			return
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			return
		}

		var event streamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// Malformed single events are recoverable: skip.
			continue
		}

		if content := event.content(); content != "" {
			select {
			case chunks <- Chunk{Content: content}:
			case <-ctx.Done():
				chunks <- Chunk{Err: ctx.Err()}
				return
			}
		}

		if event.done() {
			return
		}
	}
}

// IsCancellation reports whether err is a context cancellation or deadline.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
