// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the active conversation and the saved history.
//
// Saved order is most-recent-first. The active conversation is held by
// pointer both here and in the saved slice, so every mutation of the active
// chat is visible in the history in the same step; the two can never
// diverge. History lives in memory only and is lost on exit, which is the
// intended behavior, not an oversight.
package store

import (
	"strings"

	"github.com/halo-universe/halo/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Store manages the draft/active/saved lifecycle of conversations.
// Single-goroutine use only; the Bubble Tea update loop is the sole caller.
type Store struct {
	active *model.Conversation
	saved  []*model.Conversation

	// savedActive is true once the active conversation has been promoted
	// out of draft state into the saved collection.
	savedActive bool

	// sending enforces the at-most-one-in-flight-send invariant.
	sending bool
}

// New creates a store with a fresh draft as the active conversation.
func New() *Store {
	return &Store{active: model.NewConversation()}
}

// =============================================================================
// ACTIVE / DRAFT MANAGEMENT
// =============================================================================

// Active returns the conversation currently displayed.
func (s *Store) Active() *model.Conversation {
	return s.active
}

// IsDraft reports whether the active conversation is still unsaved.
func (s *Store) IsDraft() bool {
	return !s.savedActive
}

// NewDraft makes a fresh empty conversation active. When the active
// conversation already has zero messages this is a no-op and the existing
// draft is returned.
func (s *Store) NewDraft() *model.Conversation {
	if s.active.IsEmpty() {
		return s.active
	}
	s.active = model.NewConversation()
	s.savedActive = false
	return s.active
}

// =============================================================================
// SEND GUARD
// =============================================================================

// BeginSend marks a send as in flight. Returns false when one already is.
func (s *Store) BeginSend() bool {
	if s.sending {
		return false
	}
	s.sending = true
	return true
}

// EndSend clears the in-flight flag.
func (s *Store) EndSend() {
	s.sending = false
}

// Sending reports whether a send is in flight.
func (s *Store) Sending() bool {
	return s.sending
}

// =============================================================================
// MESSAGE APPENDS
// =============================================================================

// AppendUserMessage appends a user message to the active conversation.
// No-op when the trimmed text is empty or a send is already in flight.
// The first user message promotes a draft into the saved collection at the
// front. Returns the appended message, or nil when dropped.
func (s *Store) AppendUserMessage(text string) *model.Message {
	if strings.TrimSpace(text) == "" || s.sending {
		return nil
	}

	msg := model.NewUserMessage(text)
	s.active.Append(msg)

	if !s.savedActive {
		s.saved = append([]*model.Conversation{s.active}, s.saved...)
		s.savedActive = true
	}
	return msg
}

// AppendAssistantMessage appends an assistant reply, optionally flagged for
// the typing animation, and recomputes the summary.
func (s *Store) AppendAssistantMessage(text string, revealing bool) *model.Message {
	msg := model.NewAssistantMessage(text, revealing)
	s.active.Append(msg)
	return msg
}

// =============================================================================
// SAVED COLLECTION
// =============================================================================

// Saved returns the saved conversations, most recent first. The returned
// slice is the live collection; callers must not mutate it.
func (s *Store) Saved() []*model.Conversation {
	return s.saved
}

// Select switches the active conversation to a saved one by id.
// No-op when the id is not found.
func (s *Store) Select(id string) bool {
	for _, conv := range s.saved {
		if conv.ID == id {
			s.active = conv
			s.savedActive = true
			return true
		}
	}
	return false
}

// Delete removes a conversation from the saved collection. When the deleted
// conversation was active, the next remaining saved one becomes active, or
// a fresh draft when none remain.
func (s *Store) Delete(id string) bool {
	idx := -1
	for i, conv := range s.saved {
		if conv.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	s.saved = append(s.saved[:idx], s.saved[idx+1:]...)

	if s.active.ID == id {
		if len(s.saved) > 0 {
			s.active = s.saved[0]
			s.savedActive = true
		} else {
			s.active = model.NewConversation()
			s.savedActive = false
		}
	}
	return true
}

// Filter returns the saved conversations whose preview or message content
// contains the query, case-insensitively. A blank query returns everything.
// The underlying collection is never modified.
func (s *Store) Filter(query string) []*model.Conversation {
	if strings.TrimSpace(query) == "" {
		return s.saved
	}

	var out []*model.Conversation
	for _, conv := range s.saved {
		if conv.Matches(query) {
			out = append(out, conv)
		}
	}
	return out
}
