package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func TestOllamaGenerateSuccess(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]any{"role": "assistant", "content": "hello from ollama"},
			"prompt_eval_count": 3,
			"eval_count":        4,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{MaxAttempts: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{Model: "llama3:latest", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 16})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content() != "hello from ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.RequestID == "" || resp.Usage.TotalTokens != 7 {
		t.Fatalf("expected simulated request id and usage, got %+v", resp)
	}
}

func TestOllamaGenerateBadRequest(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "bad request"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:latest", Messages: []Message{{Role: "user", Content: "hi"}}})
	var bre *BadRequestError
	if !errors.As(err, &bre) || bre.Message != "bad request" {
		t.Fatalf("expected BadRequestError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("400 must not be retried, got %d calls", n)
	}
}

func TestOllamaRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{"content": "ok"}})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil || resp.Content() != "ok" {
		t.Fatalf("expected retry to succeed: %v %+v", err, resp)
	}
}

func TestOllamaGenerateEmptyMessages(t *testing.T) {
	c := NewOllamaClient("http://localhost:11434", 2*time.Second, RetryPolicy{MaxAttempts: 1})
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3:latest", Messages: []Message{}})
	if err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected 'messages cannot be empty' error, got: %v", err)
	}
}

func TestOllamaGenerateForwardsMessagesAndFormat(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "{}"},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, RetryPolicy{MaxAttempts: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages := []Message{
		{Role: "system", Content: "You are a reliability analyst"},
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there!"},
		{Role: "user", Content: "Summarize the ledger"},
	}
	_, err := c.Generate(ctx, GenerateRequest{Model: "llama3:latest", Messages: messages, Temperature: 0.2, ResponseFormat: JSONObject})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(captured.Messages) != len(messages) {
		t.Fatalf("expected %d messages, got %d", len(messages), len(captured.Messages))
	}
	for i, m := range messages {
		if captured.Messages[i] != m {
			t.Fatalf("message %d: expected %+v, got %+v", i, m, captured.Messages[i])
		}
	}
	if captured.Format != "json" || captured.Stream {
		t.Fatalf("expected non-streaming json request, got format=%q stream=%v", captured.Format, captured.Stream)
	}
	if captured.Options["temperature"] != 0.2 {
		t.Fatalf("temperature option = %v", captured.Options["temperature"])
	}
}

func TestUnknownRuntime(t *testing.T) {
	if _, err := NewRuntime("bedrock", RuntimeConfig{}); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	rt, err := NewRuntime(" Ollama ", RuntimeConfig{Host: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("ollama runtime: %v", err)
	}
	if _, ok := rt.(*OllamaClient); !ok {
		t.Fatalf("unexpected runtime type %T", rt)
	}
}
