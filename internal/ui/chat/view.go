// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/halo-universe/halo/internal/ui/components"
)

// Fixed chrome heights: header, input box with border, status bar.
const chromeHeight = 5

// View renders the whole screen.
func (m *Model) View() string {
	if !m.ready {
		return "Starting HALO..."
	}

	header := components.Header{
		Width:     m.width,
		Connected: m.connected,
		Model:     m.backendModel,
	}.Render(m.theme)

	var body string
	if m.idle && !m.everSent && m.store.Active().IsEmpty() {
		body = components.RenderIdle(m.theme, m.width, m.transcriptHeight())
	} else {
		body = m.renderBody()
	}

	inputBox := m.theme.InputContainer.Width(m.width - 2).Render(
		m.theme.InputPrompt.Render("> ") + m.input.View(),
	)

	status := components.StatusBar{
		Width:     m.width,
		DeepThink: m.deepThink,
		WebSearch: m.webSearch,
		Sending:   (m.state == stateWaiting && !m.stopRequested) || m.state == stateRevealing,
	}.Render(m.theme)

	return strings.Join([]string{header, body, inputBox, status}, "\n")
}

// renderBody joins the sidebar (when open) and the transcript viewport.
func (m *Model) renderBody() string {
	transcript := m.viewport.View()
	if !m.sidebarOpen {
		return transcript
	}

	sidebar := components.Sidebar{
		Conversations: m.sidebarList(),
		ActiveID:      m.store.Active().ID,
		Cursor:        m.sidebarCursor,
		Filter:        m.search.Value(),
		Height:        m.transcriptHeight(),
	}.Render(m.theme)

	if m.searching {
		searchBox := m.theme.InputPrompt.Render("/") + m.search.View()
		sidebar = lipgloss.JoinVertical(lipgloss.Left, searchBox, sidebar)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, transcript)
}

// refreshTranscript rebuilds the viewport content from the active
// conversation.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	width := m.transcriptWidth() - 2
	conv := m.store.Active()

	var parts []string
	for _, msg := range conv.Messages {
		if m.state == stateRevealing && m.revealing != nil && msg.ID == m.revealing.ID {
			// Render the revealed prefix plus a typing cursor.
			frame := components.RenderNodes(m.theme, m.engine.Frame(), width)
			label := m.theme.HaloLabel.Render(msg.Role.DisplayName())
			parts = append(parts, label+"\n"+frame+m.theme.Cursor.Render("▌"))
			continue
		}
		parts = append(parts, components.RenderMessage(m.theme, msg, width))
	}

	if m.state == stateWaiting && !m.stopRequested && conv == m.pending {
		parts = append(parts, m.spinner.View()+m.theme.ThinkingText.Render(" HALO is thinking..."))
	}

	m.viewport.SetContent(strings.Join(parts, "\n\n"))
}

// transcriptWidth is the viewport width given the sidebar state.
func (m *Model) transcriptWidth() int {
	w := m.width
	if m.sidebarOpen {
		w -= components.SidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// transcriptHeight is the viewport height under the fixed chrome.
func (m *Model) transcriptHeight() int {
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	return h
}
