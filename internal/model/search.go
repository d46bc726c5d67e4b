// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

// SearchResult is a single web-search hit used to ground a reply.
type SearchResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Augmentation is the optional web-search context attached to an outgoing
// chat request when search mode is enabled.
type Augmentation struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// IsEmpty returns true when the augmentation carries no results.
func (a *Augmentation) IsEmpty() bool {
	return a == nil || len(a.Results) == 0
}
