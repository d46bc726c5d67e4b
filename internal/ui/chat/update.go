// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/halo-universe/halo/internal/gateway"
	"github.com/halo-universe/halo/internal/model"
)

// searchMaintenanceNotice is shown when the web-search prefetch fails.
const searchMaintenanceNotice = "Web search is under maintenance right now. Your messages will go out without live results."

// Update handles all incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.observeScroll()
		return m, cmd

	case replyMsg:
		return m, m.handleReply(msg)

	case revealTickMsg:
		return m, m.handleRevealTick(msg)

	case healthMsg:
		return m, m.handleHealth(msg)

	case searchPrefetchMsg:
		return m, m.handleSearchPrefetch(msg)

	case stopSentMsg:
		return m, nil

	case idleTickMsg:
		return m, m.handleIdleTick()

	case spinner.TickMsg:
		if m.state == stateWaiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height

	vpWidth := m.transcriptWidth()
	vpHeight := m.transcriptHeight()

	if !m.ready {
		m.viewport = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = vpWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - 6

	m.refreshTranscript()
	m.viewport.GotoBottom()
	return nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.wake()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NewChat):
		return m, m.startNewChat()

	case key.Matches(msg, m.keys.Sidebar):
		m.sidebarOpen = !m.sidebarOpen
		if m.sidebarOpen {
			m.focus = focusSidebar
		} else {
			m.focus = focusInput
			m.searching = false
			m.search.Reset()
			m.search.Blur()
			m.input.Focus()
		}
		m.persistSidebar()
		return m, m.handleResize(tea.WindowSizeMsg{Width: m.width, Height: m.height})

	case key.Matches(msg, m.keys.DeepThink):
		m.deepThink = !m.deepThink
		return m, nil

	case key.Matches(msg, m.keys.WebSearch):
		m.webSearch = !m.webSearch
		if !m.webSearch {
			m.searchCtx = nil
			return m, nil
		}
		// Prefetch context for the current draft; a failure reverts the
		// toggle. An empty draft has nothing to search yet, the send path
		// fetches for the final text either way.
		if draft := strings.TrimSpace(m.input.Value()); draft != "" {
			return m, prefetchSearchCmd(m.gw, draft)
		}
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		return m, m.handleEscape()

	case key.Matches(msg, m.keys.Bottom):
		m.scroll.JumpToBottom()
		m.viewport.GotoBottom()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleEscape stops an in-flight reply, or closes search/sidebar focus.
func (m *Model) handleEscape() tea.Cmd {
	switch {
	case m.state == stateWaiting:
		// Advisory only. The send guard stays held and whatever reply
		// eventually lands is still rendered; Esc just drops the loading
		// chrome and asks halod to flag the channel.
		if m.stopRequested {
			return nil
		}
		m.stopRequested = true
		m.appendSystemNotice("Stopped.")
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return stopCmd(m.gw, m.channelID())

	case m.state == stateRevealing:
		// The full text is already in the store; finish the animation
		// instantly rather than truncating the message.
		m.engine.Stop()
		if m.revealing != nil {
			m.revealing.FinishReveal()
			m.revealing = nil
		}
		m.state = stateReady
		m.refreshTranscript()
		return stopCmd(m.gw, m.channelID())

	case m.searching:
		m.searching = false
		m.search.Reset()
		m.search.Blur()
		m.sidebarCursor = 0
		return nil

	case m.focus == focusSidebar:
		m.focus = focusInput
		m.input.Focus()
		return nil
	}
	return nil
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch {
		case key.Matches(msg, m.keys.Select):
			m.searching = false
			m.search.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.clampCursor()
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.Focus()
		m.sidebarCursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.sidebarCursor < len(m.sidebarList())-1 {
			m.sidebarCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		list := m.sidebarList()
		if m.sidebarCursor < len(list) {
			m.selectConversation(list[m.sidebarCursor].ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		list := m.sidebarList()
		if m.sidebarCursor < len(list) {
			m.store.Delete(list[m.sidebarCursor].ID)
			m.clampCursor()
			m.refreshTranscript()
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m, m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		m.observeScroll()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		m.observeScroll()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SENDING
// =============================================================================

// submit sends the composed message. A second send while one is in flight
// is ignored; the store's guard enforces that.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.store.Sending() {
		return nil
	}
	if m.store.AppendUserMessage(text) == nil {
		return nil
	}
	m.store.BeginSend()

	m.pending = m.store.Active()
	m.stopRequested = false
	m.input.Reset()
	m.everSent = true
	m.idle = false
	m.state = stateWaiting

	m.scroll.JumpToBottom()
	m.refreshTranscript()
	m.viewport.GotoBottom()

	opts := gateway.SendOptions{
		Text:      text,
		UserID:    m.userID,
		ChannelID: m.channelID(),
		DeepThink: m.deepThink,
		WebSearch: m.webSearch,
	}
	// Attach the prefetched context when it matches what is being sent;
	// otherwise sendCmd fetches fresh for this text.
	if m.webSearch && m.searchCtx != nil && m.searchCtx.Query == text {
		opts.Search = m.searchCtx
	}
	m.searchCtx = nil

	return tea.Batch(sendCmd(m.gw, opts), m.spinner.Tick)
}

func (m *Model) handleReply(msg replyMsg) tea.Cmd {
	if m.state != stateWaiting {
		return nil
	}
	m.store.EndSend()
	m.state = stateReady
	m.stopRequested = false

	target := m.pending
	m.pending = nil
	if target == nil {
		target = m.store.Active()
	}

	if msg.err != nil {
		target.Append(model.NewMessage(model.RoleSystem, errorNotice(msg.err)))
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return nil
	}

	if target != m.store.Active() {
		// The user switched chats while the send was out; file the reply
		// into the conversation it belongs to, without the animation.
		target.Append(model.NewAssistantMessage(msg.reply.Text, false))
		m.refreshTranscript()
		return nil
	}

	reply := m.store.AppendAssistantMessage(msg.reply.Text, true)
	m.revealing = reply
	m.engine.OnComplete(func() {
		reply.FinishReveal()
	})
	m.engine.OnScroll(func() {
		if m.scroll.Follow() {
			m.viewport.GotoBottom()
		}
	})
	m.revealGen = m.engine.Bind(msg.reply.Text, true)
	m.state = stateRevealing

	m.refreshTranscript()
	m.viewport.GotoBottom()
	return revealTickCmd(m.revealGen)
}

// errorNotice converts a gateway failure into transcript text.
func errorNotice(err error) string {
	var se *gateway.ServerError
	if errors.As(err, &se) {
		return se.UserMessage()
	}
	return "HALO could not reach the backend. Is halod running?"
}

// =============================================================================
// REVEAL
// =============================================================================

func (m *Model) handleRevealTick(msg revealTickMsg) tea.Cmd {
	if msg.gen != m.engine.Generation() {
		return nil
	}

	more := m.engine.Tick(msg.gen)
	m.refreshTranscript()

	if more {
		return revealTickCmd(msg.gen)
	}

	// Completion fired inside Tick; settle back to ready.
	m.revealing = nil
	m.state = stateReady
	m.refreshTranscript()
	if m.scroll.Follow() {
		m.viewport.GotoBottom()
	}
	return nil
}

// =============================================================================
// BACKGROUND EVENTS
// =============================================================================

func (m *Model) handleHealth(msg healthMsg) tea.Cmd {
	if msg.health == nil && msg.err == nil {
		// Timer fired; run the actual probe.
		return checkHealthCmd(m.gw)
	}

	if msg.err != nil {
		m.connected = false
	} else {
		m.connected = msg.health.OK
		m.backendModel = msg.health.Model
	}
	return scheduleHealthCmd()
}

func (m *Model) handleSearchPrefetch(msg searchPrefetchMsg) tea.Cmd {
	if msg.err != nil {
		m.webSearch = false
		m.searchCtx = nil
		m.appendSystemNotice(searchMaintenanceNotice)
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return nil
	}
	if !m.webSearch {
		// Toggled back off while the fetch was out.
		return nil
	}
	m.searchCtx = &model.Augmentation{Query: msg.query, Results: msg.results}
	return nil
}

func (m *Model) handleIdleTick() tea.Cmd {
	if !m.everSent && time.Since(m.lastInput) >= time.Duration(m.cfg.UI.IdleSeconds)*time.Second {
		m.idle = true
	}
	return idleTickCmd()
}

// wake clears the idle backdrop and resets the inactivity clock.
func (m *Model) wake() {
	m.idle = false
	m.lastInput = time.Now()
}

// =============================================================================
// HELPERS
// =============================================================================

// startNewChat switches to a fresh draft conversation. A send still in
// flight keeps its guard; the reply lands in the conversation it was sent
// from (tracked by pending).
func (m *Model) startNewChat() tea.Cmd {
	if m.state == stateRevealing {
		m.engine.Stop()
		if m.revealing != nil {
			m.revealing.FinishReveal()
			m.revealing = nil
		}
		m.state = stateReady
	}
	m.store.NewDraft()
	m.scroll.Reset()
	m.focus = focusInput
	m.input.Focus()
	m.refreshTranscript()
	m.viewport.GotoBottom()
	return nil
}

// selectConversation switches the transcript to a saved conversation.
func (m *Model) selectConversation(id string) {
	if m.state == stateRevealing {
		m.engine.Stop()
		if m.revealing != nil {
			m.revealing.FinishReveal()
			m.revealing = nil
		}
		m.state = stateReady
	}
	m.store.Select(id)
	m.scroll.Reset()
	m.refreshTranscript()
	m.viewport.GotoBottom()
}

// appendSystemNotice adds a system line to the active conversation.
func (m *Model) appendSystemNotice(text string) {
	m.store.Active().Append(model.NewMessage(model.RoleSystem, text))
}

// observeScroll reports the viewport position to the scroll coordinator.
func (m *Model) observeScroll() {
	distance := m.viewport.TotalLineCount() - (m.viewport.YOffset + m.viewport.Height)
	if distance < 0 {
		distance = 0
	}
	m.scroll.Observe(m.viewport.YOffset, distance)
}

// clampCursor keeps the sidebar cursor inside the visible list.
func (m *Model) clampCursor() {
	if n := len(m.sidebarList()); m.sidebarCursor >= n {
		m.sidebarCursor = n - 1
	}
	if m.sidebarCursor < 0 {
		m.sidebarCursor = 0
	}
}
