// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server implements the halod HTTP API.
//
// Endpoints:
//   - GET  /health        - Health check
//   - POST /chat/message  - Forward a chat message to Groq (non-streaming)
//   - POST /chat/stop     - Set the advisory stop flag for a channel
//   - POST /search/tavily - Web search via Tavily
//
// The chat endpoint shapes the system prompt from the message itself: very
// short greetings get a bare one-liner persona, simple prompts get the base
// persona, and everything else gets the full formatting rules.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/halo-universe/halo/internal/config"
	"github.com/halo-universe/halo/internal/groq"
	"github.com/halo-universe/halo/internal/logger"
	"github.com/halo-universe/halo/internal/tavily"
)

// ============================================================================
// PROVIDER INTERFACES
// ============================================================================

// ChatProvider produces chat completions. *groq.Client satisfies it.
type ChatProvider interface {
	ChatWithFallback(ctx context.Context, primary string, messages []groq.ChatMessage) (*groq.Completion, error)
	IsConfigured() bool
}

// Searcher runs web searches. *tavily.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]tavily.Result, error)
	IsConfigured() bool
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the halod HTTP API server.
type Server struct {
	cfg    *config.Config
	log    *logger.Logger
	chat   ChatProvider
	search Searcher

	// stopped holds the advisory stop flag per channel. The flag does not
	// abort an in-flight upstream call; clients discard the reply themselves.
	mu      sync.Mutex
	stopped map[string]bool
}

// New creates a Server wired to the given providers.
func New(cfg *config.Config, log *logger.Logger, chat ChatProvider, search Searcher) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		chat:    chat,
		search:  search,
		stopped: make(map[string]bool),
	}
}

// Handler builds the chi router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.Limit(
		s.cfg.Server.RateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		}),
	))

	r.Get("/health", s.handleHealth)
	r.Post("/chat/message", s.handleChatMessage)
	r.Post("/chat/stop", s.handleChatStop)
	r.Post("/search/tavily", s.handleSearch)

	return r
}

// logging records method, path, status, and duration for every request.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// =============================================================================
// STOP FLAGS
// =============================================================================

// markStopped sets the stop flag for a channel.
func (s *Server) markStopped(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped[channelID] = true
}

// clearStopped resets the stop flag when a new message arrives.
func (s *Server) clearStopped(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped[channelID] = false
}

// wasStopped reports whether stop was requested for a channel.
func (s *Server) wasStopped(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped[channelID]
}

// =============================================================================
// JSON HELPERS
// =============================================================================

type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Model   string `json:"model,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
