// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/halo-universe/halo/internal/groq"
	"github.com/halo-universe/halo/internal/tavily"
)

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// chatMessageRequest is the POST /chat/message body. TavilyResults is the
// search context the client pre-fetched through /search/tavily; the message
// path never searches on its own.
type chatMessageRequest struct {
	Text          string          `json:"text"`
	UserID        string          `json:"userId"`
	ChannelID     string          `json:"channelId"`
	HaloThink     bool            `json:"haloThink"`
	WebSearch     bool            `json:"webSearch"`
	TavilyResults []tavily.Result `json:"tavilyResults"`
}

// chatMessageResponse is the POST /chat/message success body.
type chatMessageResponse struct {
	Reply     string `json:"reply"`
	Model     string `json:"model"`
	UserID    string `json:"userId"`
	ChannelID string `json:"channelId"`
}

type chatStopRequest struct {
	ChannelID string `json:"channelId"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results []tavily.Result `json:"results"`
}

type healthResponse struct {
	OK       bool   `json:"ok"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		OK:       true,
		Name:     "HALO Universe",
		Version:  "v1",
		Provider: "Groq",
		Model:    s.cfg.Groq.Model,
	})
}

func (s *Server) handleChatStop(w http.ResponseWriter, r *http.Request) {
	var req chatStopRequest
	// Malformed bodies are tolerated; stop is advisory.
	json.NewDecoder(r.Body).Decode(&req)

	if req.ChannelID != "" {
		s.markStopped(req.ChannelID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing text"})
		return
	}

	channelID := req.ChannelID
	if channelID == "" {
		channelID = "default"
	}
	s.clearStopped(channelID)

	if !s.chat.IsConfigured() {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "GROQ_API_KEY not set"})
		return
	}

	// The search context arrives pre-fetched with the request. A client
	// whose prefetch failed sends none and the reply goes out unaugmented.
	var results []tavily.Result
	if req.WebSearch {
		results = req.TavilyResults
	}

	primary := s.cfg.Groq.Model
	if req.HaloThink {
		primary = s.cfg.Groq.DeepModel
	}

	messages := []groq.ChatMessage{
		groq.SystemMessage(systemPrompt(req.Text, req.HaloThink, results)),
		groq.UserMessage(req.Text),
	}

	completion, err := s.chat.ChatWithFallback(r.Context(), primary, messages)
	if err != nil {
		s.writeChatError(w, primary, err)
		return
	}

	if s.wasStopped(channelID) {
		s.log.Info("reply completed after stop request", zap.String("channel_id", channelID))
	}

	writeJSON(w, http.StatusOK, chatMessageResponse{
		Reply:     completion.Reply,
		Model:     completion.Model,
		UserID:    req.UserID,
		ChannelID: req.ChannelID,
	})
}

// writeChatError maps provider failures onto the API error contract.
func (s *Server) writeChatError(w http.ResponseWriter, model string, err error) {
	s.log.Error("chat completion failed", zap.String("model", model), zap.Error(err))

	switch {
	case errors.Is(err, groq.ErrQuotaExceeded):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{
			Error:   "Groq API error",
			Reason:  "Rate limit or quota exceeded on Groq.",
			Model:   model,
			Details: err.Error(),
		})
	case errors.Is(err, groq.ErrAuthFailed):
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   "Groq API error",
			Reason:  "Authentication issue with Groq API - check GROQ_API_KEY.",
			Model:   model,
			Details: err.Error(),
		})
	case errors.Is(err, groq.ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "GROQ_API_KEY not set"})
	default:
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   "Groq API error",
			Reason:  "Upstream error from Groq.",
			Model:   model,
			Details: err.Error(),
		})
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing query"})
		return
	}

	if !s.search.IsConfigured() {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "TAVILY_API_KEY not set"})
		return
	}

	results, err := s.search.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		s.log.Error("search failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   "Tavily API error",
			Reason:  "Upstream error from Tavily.",
			Details: err.Error(),
		})
		return
	}

	if results == nil {
		results = []tavily.Result{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}
