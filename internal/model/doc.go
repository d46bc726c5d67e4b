// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, and search augmentation.
//
// # Key Types
//
//   - Conversation: Ordered message list with derived preview/summary
//   - Message: Single message with role, content, timestamp, and reveal flag
//   - Role: Message role enumeration (user, assistant, system)
//   - Augmentation: Web-search context attached to an outgoing request
//
// # Usage
//
// Create a new conversation and append a message:
//
//	conv := model.NewConversation()
//	conv.Append(model.NewUserMessage("Hello!"))
//
// The conversation preview is set from the first user message and the
// summary is recomputed after every append.
package model
