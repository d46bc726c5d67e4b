// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// PreviewLength is the number of characters taken from the first user
	// message for the sidebar preview.
	PreviewLength = 60

	// summarySingleLength is the excerpt length for single-message summaries.
	summarySingleLength = 40

	// summaryTopicLength is the excerpt length per topic in multi-message
	// summaries.
	summaryTopicLength = 20
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds an ordered chat exchange with derived metadata.
// A conversation starts life as a draft; it is only listed in the saved
// history once its first message has been sent.
type Conversation struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []*Message `json:"messages"`

	// Preview is set from the first user message once non-empty and is
	// never cleared afterwards.
	Preview string `json:"preview"`

	// Summary is recomputed after every appended message.
	Summary string `json:"summary"`
}

// NewConversation creates a new empty draft conversation.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message, updates the preview when this is the first
// user content, and recomputes the summary.
func (c *Conversation) Append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	if c.Preview == "" && msg.Role == RoleUser {
		c.Preview = msg.Preview(PreviewLength)
	}
	c.Summary = Summarize(c.Messages)
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageByID returns a message by its ID, or nil.
func (c *Conversation) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages (still a draft).
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Matches reports whether the query appears in the preview or in any
// message content, case-insensitively. Read-only.
func (c *Conversation) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(c.Preview), q) {
		return true
	}
	for _, msg := range c.Messages {
		if strings.Contains(strings.ToLower(msg.Content), q) {
			return true
		}
	}
	return false
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summarize derives the short sidebar summary from a message list.
// Deterministic: empty list gives "Empty chat", a single message gives its
// first 40 characters plus an ellipsis, otherwise the user-message count
// and the first two user topics, with a trailing ellipsis when more exist.
func Summarize(messages []*Message) string {
	if len(messages) == 0 {
		return "Empty chat"
	}
	if len(messages) == 1 {
		return messages[0].Preview(summarySingleLength) + "..."
	}

	var users []*Message
	for _, msg := range messages {
		if msg.Role == RoleUser {
			users = append(users, msg)
		}
	}

	topics := make([]string, 0, 2)
	for i, msg := range users {
		if i >= 2 {
			break
		}
		topics = append(topics, msg.Preview(summaryTopicLength))
	}

	summary := formatCount(len(users)) + " messages: " + strings.Join(topics, ", ")
	if len(users) > 2 {
		summary += "..."
	}
	return summary
}

// formatCount renders a small non-negative count without fmt.
func formatCount(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
