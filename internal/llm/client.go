// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm implements the client for OpenAI-compatible chat completion
// APIs: a non-streaming Complete call, an SSE-based Stream call, and the
// consumer that drives a chunk stream into incremental display.
package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds the non-streaming request path.
	DefaultTimeout = 60 * time.Second

	// DefaultIdleTimeout bounds the gap between streamed events. A stream
	// that goes silent for longer is treated as a network failure.
	DefaultIdleTimeout = 30 * time.Second

	// MaxResponseSize caps the non-streaming response body.
	MaxResponseSize = 10 * 1024 * 1024

	// rateLimitBackoff is the fallback wait before the single 429 retry
	// when the server sends no Retry-After header.
	rateLimitBackoff = 2 * time.Second
)

var (
	// sharedHTTPClient serves non-streaming requests with pooling and a
	// hard timeout.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient serves streaming requests. No client timeout:
	// lifetime is controlled by the request context and the idle watchdog.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates no API key is set.
	ErrNotConfigured = errors.New("API key not configured, run: xa --set")

	// ErrAuth indicates the credential was rejected (401/403).
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests (429).
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")

	// ErrNetwork indicates a connection-level failure, including an idle
	// stream timeout.
	ErrNetwork = errors.New("network error")

	// ErrMalformed indicates a response body that could not be parsed
	// into text at all.
	ErrMalformed = errors.New("malformed response")
)

// APIError carries the structured error body returned by the API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// Unwrap maps the HTTP status onto the sentinel error taxonomy so callers
// can match with errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrAuth
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= 500:
		return ErrServer
	default:
		return nil
	}
}

// RateLimitError is a rate limit response carrying the server's requested
// retry delay.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	return "rate limited"
}

// Is allows RateLimitError to match ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single message in a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// ChatRequest is the request body for the chat completions endpoint.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// ChatResponse is the non-streaming response body.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the first choice's content, or empty.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// ModelInfo describes one model from the /models listing.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one OpenAI-compatible endpoint. The credential is held in
// memory only and is never logged; use KeyFingerprint for display.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	idleTimeout time.Duration
	httpClient  *http.Client
	streamHTTP  *http.Client
}

// New creates a client for the given endpoint and model.
func New(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      strings.TrimSpace(apiKey),
		model:       model,
		idleTimeout: DefaultIdleTimeout,
		httpClient:  sharedHTTPClient,
		streamHTTP:  sharedStreamingClient,
	}
}

// WithIdleTimeout overrides the streaming idle timeout.
func (c *Client) WithIdleTimeout(d time.Duration) *Client {
	c.idleTimeout = d
	return c
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.model
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a SHA-256 based identifier for the API key, safe
// for display and logging. The key itself is never exposed.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "xa/1.0")
}

// =============================================================================
// NON-STREAMING COMPLETION
// =============================================================================

// Complete issues a single non-streaming chat completion and returns the
// full response text. A 429 is retried once, honoring Retry-After when the
// server sends it.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	for attempt := 0; ; attempt++ {
		text, err := c.doComplete(ctx, prompt)
		if err == nil {
			return text, nil
		}

		if attempt == 0 && errors.Is(err, ErrRateLimited) {
			delay := rateLimitBackoff
			var rle *RateLimitError
			if errors.As(err, &rle) && rle.RetryAfter >= 0 {
				delay = rle.RetryAfter
			}
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		return "", err
	}
}

func (c *Client) doComplete(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatRequest{
		Model:    c.model,
		Messages: []ChatMessage{NewUserMessage(prompt)},
		Stream:   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", errorFromResponse(resp, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrMalformed)
	}

	return chatResp.GetContent(), nil
}

// readBody reads a response body with a size cap.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("%w: response exceeded %d bytes", ErrMalformed, int64(MaxResponseSize))
	}
	return body, nil
}

// errorFromResponse converts a non-2xx response into the error taxonomy.
func errorFromResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return rateLimitError(resp)
	}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  resp.StatusCode,
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (HTTP %d)", ErrAuth, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w (HTTP %d)", ErrServer, resp.StatusCode)
	default:
		return &APIError{Message: strings.TrimSpace(string(body)), Status: resp.StatusCode}
	}
}

// rateLimitError parses Retry-After from a 429 response. RetryAfter is -1
// when the server gave no usable hint, so the caller falls back to its own
// backoff.
func rateLimitError(resp *http.Response) error {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return &RateLimitError{RetryAfter: -1}
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return &RateLimitError{RetryAfter: time.Duration(seconds) * time.Second}
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return &RateLimitError{RetryAfter: d}
	}
	return &RateLimitError{RetryAfter: -1}
}

// =============================================================================
// MODEL LISTING
// =============================================================================

// ListModels retrieves the models available at the configured endpoint.
// Used by the setup wizard to offer a model selection.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp, body)
	}

	var models modelsResponse
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return models.Data, nil
}
