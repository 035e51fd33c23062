package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func chatServer(t *testing.T, failures int, content string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %q, want bearer token", got)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v, want a single user message", req.Messages)
		}

		if int(n) <= failures {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		var resp Response
		resp.Message.Role = "assistant"
		resp.Message.Content = content
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCompleteSucceedsFirstAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, 0, `{"isJobAd": false}`, &calls)
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key", "test-model", time.Second, RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	got, err := c.Complete(context.Background(), "classify this", nil)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"isJobAd": false}` {
		t.Errorf("Complete() = %q, want the content verbatim", got)
	}
	if calls.Load() != 1 {
		t.Errorf("server calls = %d, want 1", calls.Load())
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, 2, "ok", &calls)
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key", "", time.Second, RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	got, err := c.Complete(context.Background(), "classify this", nil)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Complete() = %q, want %q", got, "ok")
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
}

func TestCompleteExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := chatServer(t, 100, "never", &calls)
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key", "", time.Second, RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	_, err = c.Complete(context.Background(), "classify this", nil)
	if err == nil {
		t.Fatal("Complete() error = nil, want exhaustion")
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Complete() error = %v, want *ExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
	if exhausted.Last == nil {
		t.Error("Last = nil, want the final attempt error")
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want exactly 3", calls.Load())
	}
}

func TestCompleteEncodesImageBase64(t *testing.T) {
	image := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if len(req.Messages[0].Images) != 1 {
			t.Fatalf("images = %v, want exactly one", req.Messages[0].Images)
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Messages[0].Images[0])
		if err != nil {
			t.Fatalf("image is not valid base64: %v", err)
		}
		if string(decoded) != string(image) {
			t.Errorf("decoded image = %v, want %v", decoded, image)
		}
		var resp Response
		resp.Message.Content = "seen"
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key", "", time.Second, RetryPolicy{MaxAttempts: 1})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := c.Complete(context.Background(), "classify this", image); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
}

func TestCompleteEmptyContentIsAttemptFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key", "", time.Second, RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := c.Complete(context.Background(), "classify this", nil); err == nil {
		t.Fatal("Complete() error = nil, want failure on empty content")
	}
}

func TestCompleteUnboundedStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key", "", time.Second, RetryPolicy{MaxAttempts: 0, Delay: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = c.Complete(ctx, "classify this", nil)
	if err == nil {
		t.Fatal("Complete() error = nil, want context error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Complete() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("", "", "", 0, RetryPolicy{}); err == nil {
		t.Error("NewClient() with empty key: error = nil, want error")
	}
}
