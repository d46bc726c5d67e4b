// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func completionBody(model, content string) string {
	resp := map[string]any{
		"id":    "cmpl-1",
		"model": model,
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestChatSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gsk-test" {
			t.Errorf("auth header = %q", got)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if req.MaxTokens != DefaultMaxTokens {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(req.Model, "hello!")))
	}))
	defer srv.Close()

	c := NewClient("gsk-test").WithBaseURL(srv.URL)
	resp, err := c.Chat(context.Background(), "openai/gpt-oss-20b", []ChatMessage{UserMessage("hi")})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content() != "hello!" {
		t.Errorf("content = %q", resp.Content())
	}
}

func TestChatNotConfigured(t *testing.T) {
	c := NewClient("")
	if _, err := c.Chat(context.Background(), "m", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestChatErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, ErrAuthFailed},
		{"payment required", http.StatusPaymentRequired, `{"error":"pay up"}`, ErrQuotaExceeded},
		{"insufficient balance text", http.StatusForbidden, `Insufficient Balance`, ErrQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("gsk-test").WithBaseURL(srv.URL)
			_, err := c.Chat(context.Background(), "m", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestChatWithFallback(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		models = append(models, req.Model)

		// Primary and first fallback are down.
		if len(models) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody(req.Model, "from fallback")))
	}))
	defer srv.Close()

	c := NewClient("gsk-test").WithBaseURL(srv.URL)
	got, err := c.ChatWithFallback(context.Background(), "openai/gpt-oss-20b", []ChatMessage{UserMessage("hi")})
	if err != nil {
		t.Fatalf("ChatWithFallback: %v", err)
	}
	if got.Reply != "from fallback" {
		t.Errorf("reply = %q", got.Reply)
	}
	if got.Model != "llama-3.1-8b-instant" {
		t.Errorf("model = %q, want third in chain", got.Model)
	}
	if models[0] != "openai/gpt-oss-20b" {
		t.Errorf("first attempt = %q, want primary", models[0])
	}
}

func TestChatWithFallbackSkipsDuplicatePrimary(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("gsk-test").WithBaseURL(srv.URL)
	_, err := c.ChatWithFallback(context.Background(), FreeModels[0], nil)
	if !errors.Is(err, ErrAllModelsFailed) {
		t.Fatalf("err = %v, want ErrAllModelsFailed", err)
	}
	if count != len(FreeModels) {
		t.Errorf("attempts = %d, want %d", count, len(FreeModels))
	}
}

func TestChatWithFallbackStopsOnCancel(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("gsk-test").WithBaseURL(srv.URL)
	_, err := c.ChatWithFallback(ctx, FreeModels[0], nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestWithTimeout(t *testing.T) {
	c := NewClient("key").WithTimeout(3 * time.Second)
	if c.httpClient.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", c.httpClient.Timeout)
	}
	if c.httpClient == sharedHTTPClient {
		t.Error("override must not mutate the shared client")
	}

	c = NewClient("key").WithTimeout(0)
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("zero timeout should keep the default, got %v", c.httpClient.Timeout)
	}
}
