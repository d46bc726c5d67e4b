// halod - The HALO backend daemon, proxying chat to Groq and search to Tavily.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/halo-universe/halo/internal/config"
	"github.com/halo-universe/halo/internal/groq"
	"github.com/halo-universe/halo/internal/logger"
	"github.com/halo-universe/halo/internal/server"
	"github.com/halo-universe/halo/internal/tavily"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "halod: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	log, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "halod: create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Groq.APIKey == "" {
		log.Warn("GROQ_API_KEY not set, chat requests will fail")
	}
	if cfg.Tavily.APIKey == "" {
		log.Warn("TAVILY_API_KEY not set, web search disabled")
	}

	groqClient := groq.NewClient(cfg.Groq.APIKey).
		WithBaseURL(cfg.Groq.BaseURL).
		WithTimeout(cfg.Groq.Timeout)
	tavilyClient := tavily.NewClient(cfg.Tavily.APIKey).
		WithBaseURL(cfg.Tavily.BaseURL).
		WithTimeout(cfg.Tavily.Timeout)

	srv := server.New(cfg, log, groqClient, tavilyClient)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		log.Info("halod listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("model", cfg.Groq.Model),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}
