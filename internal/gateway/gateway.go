// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway is the TUI-side client for the halod HTTP API.
//
// All calls are non-streaming. Send blocks until the full reply arrives or
// the context is done; Stop is advisory and fire-and-forget from the
// caller's point of view.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/halo-universe/halo/internal/model"
)

// DefaultTimeout bounds a single send round trip. Model calls with
// fallback can take a while.
const DefaultTimeout = 60 * time.Second

// maxResponseSize caps a halod response body.
const maxResponseSize = 4 * 1024 * 1024 // 4MB

// ServerError is a structured error payload from halod.
type ServerError struct {
	Status  int
	Message string `json:"error"`
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Message, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// UserMessage returns text suitable for showing in the chat transcript.
func (e *ServerError) UserMessage() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Message != "" {
		return e.Message
	}
	return "The backend returned an error."
}

// SendOptions carries everything a single chat send needs.
type SendOptions struct {
	Text      string
	UserID    string
	ChannelID string
	DeepThink bool
	WebSearch bool

	// Search is the pre-fetched augmentation context riding along with the
	// request. halod injects it into the system prompt; it never searches
	// on the message path itself.
	Search *model.Augmentation
}

// Reply is a successful chat response.
type Reply struct {
	Text  string
	Model string
}

// Health describes the halod health endpoint response.
type Health struct {
	OK       bool   `json:"ok"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Gateway talks to halod.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Gateway for the given halod base URL.
func New(baseURL string) *Gateway {
	return &Gateway{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient sets a custom HTTP client.
func (g *Gateway) WithHTTPClient(hc *http.Client) *Gateway {
	g.httpClient = hc
	return g
}

// WithTimeout overrides the round-trip timeout. Non-positive values keep
// the default.
func (g *Gateway) WithTimeout(d time.Duration) *Gateway {
	if d > 0 {
		g.httpClient.Timeout = d
	}
	return g
}

// Send posts a chat message and waits for the complete reply.
func (g *Gateway) Send(ctx context.Context, opts SendOptions) (*Reply, error) {
	body := map[string]any{
		"text":      opts.Text,
		"userId":    opts.UserID,
		"channelId": opts.ChannelID,
		"haloThink": opts.DeepThink,
		"webSearch": opts.WebSearch,
	}
	if !opts.Search.IsEmpty() {
		body["tavilyResults"] = opts.Search.Results
	}

	var resp struct {
		Reply string `json:"reply"`
		Model string `json:"model"`
	}
	if err := g.post(ctx, "/chat/message", body, &resp); err != nil {
		return nil, err
	}
	return &Reply{Text: resp.Reply, Model: resp.Model}, nil
}

// Stop sets the advisory stop flag for a channel. Errors are returned but
// callers may ignore them; the flag only suppresses a reply best-effort.
func (g *Gateway) Stop(ctx context.Context, channelID string) error {
	return g.post(ctx, "/chat/stop", map[string]string{"channelId": channelID}, nil)
}

// WebSearch runs a standalone Tavily search through halod.
func (g *Gateway) WebSearch(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	var resp struct {
		Results []model.SearchResult `json:"results"`
	}
	body := map[string]any{"query": query, "limit": limit}
	if err := g.post(ctx, "/search/tavily", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// CheckHealth queries the halod health endpoint.
func (g *Gateway) CheckHealth(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, decodeError(httpResp.StatusCode, data)
	}

	var h Health
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse health response: %w", err)
	}
	return &h, nil
}

// post sends a JSON body and decodes the JSON response into out (when out
// is non-nil). Non-2xx responses become *ServerError.
func (g *Gateway) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, respData)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respData, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// decodeError turns an error payload into a *ServerError, falling back to
// the raw body when it is not the expected shape.
func decodeError(status int, body []byte) error {
	se := &ServerError{Status: status}
	if err := json.Unmarshal(body, se); err != nil || se.Message == "" {
		se.Message = "backend error"
		se.Details = string(body)
	}
	return se
}
