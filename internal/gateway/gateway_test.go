// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/halo-universe/halo/internal/model"
)

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/message" {
			t.Errorf("path = %s", r.URL.Path)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["text"] != "Hello" {
			t.Errorf("text = %v", req["text"])
		}
		if req["haloThink"] != true {
			t.Errorf("haloThink = %v", req["haloThink"])
		}
		if _, ok := req["tavilyResults"]; ok {
			t.Error("tavilyResults should be omitted without search context")
		}

		json.NewEncoder(w).Encode(map[string]string{
			"reply": "Hi! 🎉",
			"model": "openai/gpt-oss-20b",
		})
	}))
	defer srv.Close()

	g := New(srv.URL)
	reply, err := g.Send(context.Background(), SendOptions{
		Text:      "Hello",
		UserID:    "u1",
		ChannelID: "halo-general",
		DeepThink: true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if reply.Text != "Hi! 🎉" {
		t.Errorf("reply = %q", reply.Text)
	}
	if reply.Model != "openai/gpt-oss-20b" {
		t.Errorf("model = %q", reply.Model)
	}
}

func TestSendAttachesSearchContext(t *testing.T) {
	var gotResults []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			WebSearch     bool             `json:"webSearch"`
			TavilyResults []map[string]any `json:"tavilyResults"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if !req.WebSearch {
			t.Error("webSearch flag missing")
		}
		gotResults = req.TavilyResults
		json.NewEncoder(w).Encode(map[string]string{"reply": "grounded", "model": "m"})
	}))
	defer srv.Close()

	g := New(srv.URL)
	_, err := g.Send(context.Background(), SendOptions{
		Text:      "What is new in Go?",
		WebSearch: true,
		Search: &model.Augmentation{
			Query: "What is new in Go?",
			Results: []model.SearchResult{
				{Title: "Go blog", URL: "https://go.dev/blog", Content: "release notes"},
			},
		},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(gotResults) != 1 || gotResults[0]["title"] != "Go blog" {
		t.Errorf("tavilyResults = %+v, want the prefetched context in the body", gotResults)
	}
}

func TestSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  "Groq API error",
			"reason": "Rate limit or quota exceeded on Groq.",
		})
	}))
	defer srv.Close()

	g := New(srv.URL)
	_, err := g.Send(context.Background(), SendOptions{Text: "Hello"})

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if se.Status != http.StatusPaymentRequired {
		t.Errorf("status = %d", se.Status)
	}
	if se.UserMessage() != "Rate limit or quota exceeded on Groq." {
		t.Errorf("user message = %q", se.UserMessage())
	}
}

func TestSendUnparseableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	g := New(srv.URL)
	_, err := g.Send(context.Background(), SendOptions{Text: "Hello"})

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if se.Message != "backend error" {
		t.Errorf("message = %q", se.Message)
	}
}

func TestSendBackendUnreachable(t *testing.T) {
	g := New("http://127.0.0.1:1")
	_, err := g.Send(context.Background(), SendOptions{Text: "Hello"})
	if err == nil {
		t.Fatal("expected error")
	}

	var se *ServerError
	if errors.As(err, &se) {
		t.Error("transport failure should not be a ServerError")
	}
}

func TestStop(t *testing.T) {
	var gotChannel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/stop" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		gotChannel = req["channelId"]
		json.NewEncoder(w).Encode(map[string]bool{"stopped": true})
	}))
	defer srv.Close()

	g := New(srv.URL)
	if err := g.Stop(context.Background(), "halo-general"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if gotChannel != "halo-general" {
		t.Errorf("channel = %q", gotChannel)
	}
}

func TestWebSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tavily" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Go", "url": "https://go.dev", "content": "golang"},
			},
		})
	}))
	defer srv.Close()

	g := New(srv.URL)
	results, err := g.WebSearch(context.Background(), "golang", 3)
	if err != nil {
		t.Fatalf("WebSearch: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Go" {
		t.Errorf("results = %+v", results)
	}
}

func TestWithTimeout(t *testing.T) {
	g := New("http://localhost:3000").WithTimeout(5 * time.Second)
	if g.httpClient.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", g.httpClient.Timeout)
	}

	g = New("http://localhost:3000").WithTimeout(0)
	if g.httpClient.Timeout != DefaultTimeout {
		t.Errorf("zero timeout should keep the default, got %v", g.httpClient.Timeout)
	}
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Health{OK: true, Name: "HALO Universe", Provider: "Groq"})
	}))
	defer srv.Close()

	g := New(srv.URL)
	h, err := g.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !h.OK || h.Provider != "Groq" {
		t.Errorf("health = %+v", h)
	}
}
