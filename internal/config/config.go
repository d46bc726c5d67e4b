// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for HALO.
//
// Supports a TOML configuration file with sensible defaults and environment
// variable overrides.
//
// Configuration file location:
//   - ~/.halo/config.toml
//   - Built-in defaults otherwise
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete HALO configuration, shared by the TUI and halod.
type Config struct {
	// Backend is the halod endpoint the TUI talks to.
	Backend BackendConfig `toml:"backend"`

	// Server configures halod itself.
	Server ServerConfig `toml:"server"`

	// Groq configures the upstream chat-completions provider.
	Groq GroqConfig `toml:"groq"`

	// Tavily configures the web-search provider.
	Tavily TavilyConfig `toml:"tavily"`

	// UI contains client-side tuning knobs.
	UI UIConfig `toml:"ui"`
}

// BackendConfig holds the client-side view of halod.
type BackendConfig struct {
	// URL is the halod base URL.
	URL string `toml:"url"`
	// ChannelID is the chat channel the client joins.
	ChannelID string `toml:"channel_id"`
	// Timeout bounds a single /chat/message round trip.
	Timeout time.Duration `toml:"timeout"`
}

// ServerConfig holds the halod listener settings.
type ServerConfig struct {
	Port int `toml:"port"`
	// RateLimit is the per-IP request budget per minute.
	RateLimit int `toml:"rate_limit"`
	// AllowedOrigins is the CORS allow-list.
	AllowedOrigins []string `toml:"allowed_origins"`
	// LogLevel is the zap level for halod ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`
}

// GroqConfig holds the Groq provider settings.
type GroqConfig struct {
	APIKey string `toml:"api_key"`
	// BaseURL overrides the Groq API endpoint, mainly for tests.
	BaseURL string `toml:"base_url"`
	// Model is the primary chat model.
	Model string `toml:"model"`
	// DeepModel is used when deep-think mode is requested.
	DeepModel string        `toml:"deep_model"`
	Timeout   time.Duration `toml:"timeout"`
}

// TavilyConfig holds the Tavily search provider settings.
type TavilyConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

// UIConfig contains client-side tuning.
type UIConfig struct {
	// IdleSeconds is how long without input before the idle backdrop shows.
	IdleSeconds int `toml:"idle_seconds"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:       "http://localhost:3000",
			ChannelID: "halo-general",
			Timeout:   60 * time.Second,
		},
		Server: ServerConfig{
			Port:      3000,
			RateLimit: 60,
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			},
			LogLevel: "info",
		},
		Groq: GroqConfig{
			BaseURL:   "https://api.groq.com/openai/v1",
			Model:     "openai/gpt-oss-20b",
			DeepModel: "openai/gpt-oss-120b",
			Timeout:   60 * time.Second,
		},
		Tavily: TavilyConfig{
			BaseURL: "https://api.tavily.com",
			Timeout: 15 * time.Second,
		},
		UI: UIConfig{
			IdleSeconds: 10,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Dir returns the HALO configuration directory (~/.halo).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".halo"), nil
}

// Load reads ~/.halo/config.toml over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	dir, err := Dir()
	if err == nil {
		path := filepath.Join(dir, "config.toml")
		if _, statErr := os.Stat(path); statErr == nil {
			if _, decErr := toml.DecodeFile(path, cfg); decErr != nil {
				return nil, fmt.Errorf("parse %s: %w", path, decErr)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		c.Groq.APIKey = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		c.Tavily.APIKey = v
	}
	if v := os.Getenv("HALO_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("HALO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("HALO_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	for _, raw := range []string{c.Backend.URL, c.Groq.BaseURL, c.Tavily.BaseURL} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
	}
	if c.Groq.Model == "" {
		return errors.New("groq model must not be empty")
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// SetGlobal installs the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// Global returns the process-wide configuration, or the defaults when none
// has been installed yet.
func Global() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalCfg == nil {
		return Default()
	}
	return globalCfg
}
