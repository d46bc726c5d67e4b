// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/halo-universe/halo/internal/ui/styles"
)

// =============================================================================
// HEADER
// =============================================================================

// Header renders the top bar with the brand and backend status.
type Header struct {
	Width int
	// Connected reflects the last halod health check.
	Connected bool
	// Model is the backend's primary model name from the health check.
	Model string
}

// Render draws the header line.
func (h Header) Render(theme *styles.Theme) string {
	brand := theme.HeaderTitle.Render("HALO") + theme.HeaderSubtitle.Render(" Universe")

	var status string
	if h.Connected {
		status = theme.ShortcutDesc.Render(h.Model+" ") +
			lipgloss.NewStyle().Foreground(styles.Emerald).Render("●")
	} else {
		status = theme.ShortcutDesc.Render("offline ") +
			lipgloss.NewStyle().Foreground(styles.Rose).Render("●")
	}

	gap := h.Width - lipgloss.Width(brand) - lipgloss.Width(status) - 2
	if gap < 1 {
		gap = 1
	}

	return theme.StatusBar.Width(h.Width).Render(brand + strings.Repeat(" ", gap) + status)
}
