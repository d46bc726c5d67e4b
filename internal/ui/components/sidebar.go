// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/halo-universe/halo/internal/model"
	"github.com/halo-universe/halo/internal/ui/styles"
	"github.com/halo-universe/halo/internal/util"
)

// =============================================================================
// HISTORY SIDEBAR
// =============================================================================

// SidebarWidth is the fixed column width of the history sidebar.
const SidebarWidth = 32

// Sidebar renders the saved-conversation list.
type Sidebar struct {
	Conversations []*model.Conversation
	ActiveID      string
	// Cursor is the highlighted row, used for keyboard selection. It is
	// independent of ActiveID so the user can browse without switching.
	Cursor int
	// Filter is the current search query; empty shows everything.
	Filter string
	Height int
}

// Render draws the sidebar column.
func (s Sidebar) Render(theme *styles.Theme) string {
	var b strings.Builder

	title := "History"
	if s.Filter != "" {
		title = "History /" + s.Filter
	}
	b.WriteString(theme.SidebarTitle.Render(util.TruncateWidth(title, SidebarWidth-2)))
	b.WriteString("\n\n")

	if len(s.Conversations) == 0 {
		if s.Filter != "" {
			b.WriteString(theme.SidebarSummary.Render("No matches"))
		} else {
			b.WriteString(theme.SidebarSummary.Render("No chats yet"))
		}
		return theme.Sidebar.Height(s.Height).Width(SidebarWidth).Render(b.String())
	}

	for i, conv := range s.Conversations {
		label := conv.Preview
		if label == "" {
			label = "New chat"
		}
		label = util.TruncateWidth(label, SidebarWidth-4)

		marker := "  "
		if conv.ID == s.ActiveID {
			marker = "* "
		}

		line := marker + label
		if i == s.Cursor {
			b.WriteString(theme.SidebarItemSelected.Render(line))
		} else {
			b.WriteString(theme.SidebarItem.Render(line))
		}
		b.WriteString("\n")

		summary := util.TruncateWidth(conv.Summary, SidebarWidth-4)
		b.WriteString(theme.SidebarSummary.Render("  " + summary))
		b.WriteString("\n")
	}

	return theme.Sidebar.Height(s.Height).Width(SidebarWidth).Render(b.String())
}
