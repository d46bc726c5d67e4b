// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/halo-universe/halo/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom bar with quick-action toggles and shortcuts.
type StatusBar struct {
	Width     int
	DeepThink bool
	WebSearch bool
	Sending   bool
}

// shortcut is a key/description pair shown in the status bar.
type shortcut struct {
	key  string
	desc string
}

// Render draws the status line.
func (s StatusBar) Render(theme *styles.Theme) string {
	var parts []string

	parts = append(parts, renderToggle(theme, "think", s.DeepThink))
	parts = append(parts, renderToggle(theme, "search", s.WebSearch))

	shortcuts := []shortcut{
		{"^n", "new"},
		{"^h", "history"},
		{"^t", "think"},
		{"^w", "search"},
	}
	if s.Sending {
		shortcuts = append(shortcuts, shortcut{"esc", "stop"})
	}

	for _, sc := range shortcuts {
		parts = append(parts, theme.ShortcutKey.Render(sc.key)+theme.ShortcutDesc.Render(" "+sc.desc))
	}

	line := strings.Join(parts, theme.ShortcutDesc.Render("  |  "))
	if s.Width > 0 && lipgloss.Width(line) > s.Width {
		line = strings.Join(parts[:2], theme.ShortcutDesc.Render("  |  "))
	}
	return theme.StatusBar.Width(s.Width).Render(line)
}

// renderToggle draws an on/off quick action badge.
func renderToggle(theme *styles.Theme, name string, on bool) string {
	if on {
		return theme.ToggleOn.Render("[" + name + ": on]")
	}
	return theme.ToggleOff.Render("[" + name + ": off]")
}
