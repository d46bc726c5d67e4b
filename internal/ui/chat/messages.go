// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/halo-universe/halo/internal/gateway"
	"github.com/halo-universe/halo/internal/model"
	"github.com/halo-universe/halo/internal/reveal"
)

// =============================================================================
// MESSAGES
// =============================================================================

// replyMsg carries the backend's response to a chat send.
type replyMsg struct {
	reply *gateway.Reply
	err   error
}

// revealTickMsg advances the typing animation. The generation lets stale
// ticks from an abandoned reveal be dropped.
type revealTickMsg struct {
	gen uint64
}

// healthMsg carries the result of a halod health check.
type healthMsg struct {
	health *gateway.Health
	err    error
}

// searchPrefetchMsg carries the augmentation context fetched when the
// search toggle is switched on with a draft in the input.
type searchPrefetchMsg struct {
	query   string
	results []model.SearchResult
	err     error
}

// stopSentMsg reports that the advisory stop reached halod.
type stopSentMsg struct{}

// idleTickMsg drives idle-backdrop detection.
type idleTickMsg time.Time

// =============================================================================
// COMMANDS
// =============================================================================

// sendTimeout bounds a single chat round trip including model fallback.
const sendTimeout = 90 * time.Second

// healthInterval is how often the backend is re-probed.
const healthInterval = 30 * time.Second

// searchLimit is how many results ride along as augmentation context.
const searchLimit = 5

func sendCmd(gw *gateway.Gateway, opts gateway.SendOptions) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if opts.WebSearch && opts.Search.IsEmpty() {
			// The prefetched context went stale or never happened; fetch
			// fresh for the text actually being sent. A failure here is
			// not fatal, the message just goes out unaugmented.
			if results, err := gw.WebSearch(ctx, opts.Text, searchLimit); err == nil {
				opts.Search = &model.Augmentation{Query: opts.Text, Results: results}
			}
		}
		reply, err := gw.Send(ctx, opts)
		return replyMsg{reply: reply, err: err}
	}
}

func revealTickCmd(gen uint64) tea.Cmd {
	return tea.Tick(reveal.TickInterval, func(time.Time) tea.Msg {
		return revealTickMsg{gen: gen}
	})
}

func checkHealthCmd(gw *gateway.Gateway) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h, err := gw.CheckHealth(ctx)
		return healthMsg{health: h, err: err}
	}
}

func scheduleHealthCmd() tea.Cmd {
	return tea.Tick(healthInterval, func(time.Time) tea.Msg {
		return healthMsg{}
	})
}

func stopCmd(gw *gateway.Gateway, channelID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Best effort; the reply is discarded locally either way.
		gw.Stop(ctx, channelID)
		return stopSentMsg{}
	}
}

func prefetchSearchCmd(gw *gateway.Gateway, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		results, err := gw.WebSearch(ctx, query, searchLimit)
		return searchPrefetchMsg{query: query, results: results, err: err}
	}
}

func idleTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return idleTickMsg(t)
	})
}
