package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIBackendInvoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("want single user message, got %+v", body.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"message": map[string]string{"content": "Paris."}},
			},
		})
	}))
	defer srv.Close()

	b, err := NewOpenAIBackend(OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAIBackend: %v", err)
	}
	out, err := b.Invoke(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	msg, ok := out.(*Message)
	if !ok {
		t.Fatalf("want *Message, got %T", out)
	}
	if msg.Content != "Paris." || msg.Model != "gpt-4o-mini" {
		t.Errorf("got %+v", msg)
	}
}

func TestOpenAIBackendErrors(t *testing.T) {
	if _, err := NewOpenAIBackend(OpenAIConfig{}); err == nil {
		t.Error("want error for missing API key")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b, err := NewOpenAIBackend(OpenAIConfig{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIBackend: %v", err)
	}
	if _, err := b.Invoke(context.Background(), "hi"); err == nil {
		t.Error("want error on non-2xx status")
	}
}
