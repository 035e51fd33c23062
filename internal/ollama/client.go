// Package ollama wraps the Ollama Cloud chat-completion API: one blocking
// request per attempt, a bounded-or-unbounded retry policy around it, and a
// lenient JSON extractor for the model's free-form replies.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	defaultAPIURL = "https://ollama.com/api/chat"
	defaultModel  = "qwen3-vl:235b-cloud"
)

// Message is a single chat message. Images are inline base64 payloads.
type Message struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// Request is the chat-completion request body.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Response is the subset of the chat-completion response we consume.
type Response struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

// Client talks to the Ollama Cloud API.
type Client struct {
	apiURL  string
	apiKey  string
	model   string
	timeout time.Duration
	policy  RetryPolicy

	httpClient *http.Client
}

// NewClient builds a client. apiKey is required; empty apiURL and model
// fall back to the Ollama Cloud defaults.
func NewClient(apiURL, apiKey, model string, timeout time.Duration, policy RetryPolicy) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ollama: api key must be provided")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		policy:     policy,
		httpClient: &http.Client{},
	}, nil
}

// Complete sends the prompt (and the image, when present, inline as base64)
// and returns the assistant message text verbatim. Attempts are strictly
// sequential; each is bounded by the client timeout. On a bounded policy the
// final failure is an *ExhaustedError wrapping the last attempt error.
func (c *Client) Complete(ctx context.Context, prompt string, image []byte) (string, error) {
	req := Request{
		Model:    c.model,
		Messages: []Message{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	if len(image) > 0 {
		req.Messages[0].Images = []string{base64.StdEncoding.EncodeToString(image)}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 1; c.policy.Unbounded() || attempt <= c.policy.MaxAttempts; attempt++ {
		content, err := c.attempt(ctx, body)
		if err == nil {
			return content, nil
		}
		lastErr = err
		log.Printf("[ollama] Attempt %d failed: %v", attempt, err)

		if !c.policy.Unbounded() && attempt >= c.policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.policy.Delay):
		}
	}
	return "", &ExhaustedError{Attempts: c.policy.MaxAttempts, Last: lastErr}
}

// attempt performs one blocking request bounded by the per-attempt timeout.
// A transport error, a non-200 status, or an empty message body all count
// as a failed attempt.
func (c *Client) attempt(ctx context.Context, body []byte) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api returned status %d: %s", resp.StatusCode, truncate(raw, 500))
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response body")
	}

	var parsed Response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Message.Content == "" {
		return "", fmt.Errorf("response contained no message content")
	}
	return parsed.Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
