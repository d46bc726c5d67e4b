// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/halo-universe/halo/internal/config"
	"github.com/halo-universe/halo/internal/gateway"
	"github.com/halo-universe/halo/internal/model"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	m := New(config.Default(), gateway.New("http://127.0.0.1:1"))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func pressEnter(m *Model) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func typeText(m *Model, text string) {
	m.input.SetValue(text)
}

func TestSubmitTransitionsToWaiting(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "Hello HALO")

	cmd := pressEnter(m)
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	if m.State() != stateWaiting {
		t.Errorf("state = %v, want waiting", m.State())
	}
	if !m.Store().Sending() {
		t.Error("store should report a send in flight")
	}

	msgs := m.Store().Active().Messages
	if len(msgs) != 1 || msgs[0].Role != model.RoleUser {
		t.Fatalf("messages = %+v", msgs)
	}
	if m.input.Value() != "" {
		t.Error("input should clear on send")
	}
}

func TestSubmitIgnoredWhileWaiting(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "first")
	pressEnter(m)

	typeText(m, "second")
	pressEnter(m)

	if got := len(m.Store().Active().Messages); got != 1 {
		t.Errorf("messages = %d, want 1 (second send ignored)", got)
	}
}

func TestSubmitEmptyIsNoop(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "   ")

	if cmd := pressEnter(m); cmd != nil {
		t.Error("whitespace-only input should not send")
	}
	if m.State() != stateReady {
		t.Errorf("state = %v", m.State())
	}
}

func TestReplyStartsRevealAndCompletes(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "Hello")
	pressEnter(m)

	m.Update(replyMsg{reply: &gateway.Reply{Text: "Hi!", Model: "m"}})
	if m.State() != stateRevealing {
		t.Fatalf("state = %v, want revealing", m.State())
	}

	msgs := m.Store().Active().Messages
	reply := msgs[len(msgs)-1]
	if reply.Role != model.RoleAssistant || !reply.IsRevealing {
		t.Fatalf("reply = %+v", reply)
	}

	// Three characters reveal in three ticks, completion on the fourth.
	gen := m.engine.Generation()
	for i := 0; i < 4; i++ {
		m.Update(revealTickMsg{gen: gen})
	}

	if m.State() != stateReady {
		t.Errorf("state = %v, want ready after completion", m.State())
	}
	if reply.IsRevealing {
		t.Error("reply should be finalized")
	}
}

func TestStaleRevealTickIgnored(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "Hello")
	pressEnter(m)
	m.Update(replyMsg{reply: &gateway.Reply{Text: "Hi!", Model: "m"}})

	gen := m.engine.Generation()
	m.Update(revealTickMsg{gen: gen - 1})

	if m.engine.Shown() != "" {
		t.Error("stale tick should not advance the reveal")
	}
}

func TestReplyErrorShowsNotice(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "Hello")
	pressEnter(m)

	m.Update(replyMsg{err: &gateway.ServerError{
		Status:  402,
		Message: "Groq API error",
		Reason:  "Rate limit or quota exceeded on Groq.",
	}})

	if m.State() != stateReady {
		t.Errorf("state = %v", m.State())
	}

	msgs := m.Store().Active().Messages
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleSystem || !strings.Contains(last.Content, "quota exceeded") {
		t.Errorf("last message = %+v", last)
	}
	if m.Store().Sending() {
		t.Error("send guard should be released")
	}
}

func TestEscapeWhileWaitingKeepsSendGuard(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "first question")
	pressEnter(m)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Error("expected a stop command")
	}
	if !m.Store().Sending() {
		t.Fatal("send guard must stay held until the reply lands")
	}
	if strings.Contains(m.View(), "thinking") {
		t.Error("loading chrome should disappear on stop")
	}

	// A second send while the stopped one is still outstanding is dropped.
	typeText(m, "second question")
	pressEnter(m)
	users := 0
	for _, msg := range m.Store().Active().Messages {
		if msg.Role == model.RoleUser {
			users++
		}
	}
	if users != 1 {
		t.Fatalf("user messages = %d, want 1 (at most one send in flight)", users)
	}

	// Stop is advisory: the late reply is still rendered, as the answer to
	// the message it was sent for.
	m.Update(replyMsg{reply: &gateway.Reply{Text: "late answer", Model: "m"}})
	if m.State() != stateRevealing {
		t.Errorf("state = %v, want revealing", m.State())
	}
	msgs := m.Store().Active().Messages
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant || last.Content != "late answer" {
		t.Errorf("last message = %+v, want the late reply", last)
	}
	if m.Store().Sending() {
		t.Error("guard releases once the reply lands")
	}
}

func TestNewChatMidFlightFilesReplyToOrigin(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "origin question")
	pressEnter(m)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if !m.Store().Sending() {
		t.Fatal("switching chats must not release the send guard")
	}
	if !m.Store().Active().IsEmpty() {
		t.Fatal("new chat should start empty")
	}

	m.Update(replyMsg{reply: &gateway.Reply{Text: "origin answer", Model: "m"}})

	if !m.Store().Active().IsEmpty() {
		t.Error("reply must not land in the new draft")
	}
	saved := m.Store().Saved()
	if len(saved) != 1 {
		t.Fatalf("saved = %d", len(saved))
	}
	origin := saved[0].Messages
	last := origin[len(origin)-1]
	if last.Role != model.RoleAssistant || last.Content != "origin answer" {
		t.Errorf("origin conversation ends with %+v", last)
	}
	if last.IsRevealing {
		t.Error("a reply filed into a background chat should not animate")
	}
	if m.Store().Sending() {
		t.Error("guard releases once the reply lands")
	}
}

func TestEscapeWhileRevealingFinishesInstantly(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "Hello")
	pressEnter(m)
	m.Update(replyMsg{reply: &gateway.Reply{Text: "A long reply", Model: "m"}})

	msgs := m.Store().Active().Messages
	reply := msgs[len(msgs)-1]

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.State() != stateReady {
		t.Errorf("state = %v", m.State())
	}
	if reply.IsRevealing {
		t.Error("reveal should be finalized on stop")
	}
	if reply.Content != "A long reply" {
		t.Error("content must not be truncated by stop")
	}
}

func TestSearchPrefetchFailureRevertsToggle(t *testing.T) {
	m := newTestModel(t)
	m.webSearch = true

	m.Update(searchPrefetchMsg{err: &gateway.ServerError{Status: 502, Message: "Tavily API error"}})

	if m.webSearch {
		t.Error("toggle should revert on prefetch failure")
	}
	if m.searchCtx != nil {
		t.Error("no context should survive a failed prefetch")
	}

	msgs := m.Store().Active().Messages
	if len(msgs) == 0 || !strings.Contains(msgs[len(msgs)-1].Content, "maintenance") {
		t.Error("maintenance notice missing")
	}
}

func TestSearchPrefetchAttachedToNextSend(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "latest Go release news")

	// Toggling search on with a draft prefetches for that draft.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	if !m.webSearch {
		t.Fatal("toggle should switch on")
	}
	if cmd == nil {
		t.Fatal("expected a prefetch command for the draft")
	}

	m.Update(searchPrefetchMsg{
		query: "latest Go release news",
		results: []model.SearchResult{
			{Title: "Go blog", URL: "https://go.dev/blog", Content: "notes"},
		},
	})
	if m.searchCtx == nil || m.searchCtx.Query != "latest Go release news" {
		t.Fatalf("searchCtx = %+v", m.searchCtx)
	}

	// Sending consumes the prefetched context.
	pressEnter(m)
	if m.searchCtx != nil {
		t.Error("prefetched context should be consumed by the send")
	}
}

func TestSearchToggleOffDropsContext(t *testing.T) {
	m := newTestModel(t)
	m.webSearch = true
	m.searchCtx = &model.Augmentation{Query: "q"}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlW})
	if m.webSearch {
		t.Error("toggle should switch off")
	}
	if m.searchCtx != nil {
		t.Error("context should be dropped with the toggle")
	}
}

func TestDeepThinkToggle(t *testing.T) {
	m := newTestModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if !m.deepThink {
		t.Error("deep think should toggle on")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.deepThink {
		t.Error("deep think should toggle off")
	}
}

func TestNewChatStartsDraft(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "Hello")
	pressEnter(m)
	m.Update(replyMsg{reply: &gateway.Reply{Text: "Hi!", Model: "m"}})

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	if m.State() != stateReady {
		t.Errorf("state = %v", m.State())
	}
	if !m.Store().Active().IsEmpty() {
		t.Error("new chat should start empty")
	}
	if len(m.Store().Saved()) != 1 {
		t.Errorf("saved = %d, want previous chat kept", len(m.Store().Saved()))
	}
}

func TestIdleBackdropBeforeFirstMessage(t *testing.T) {
	m := newTestModel(t)
	m.cfg.UI.IdleSeconds = 0
	m.lastInput = time.Now().Add(-time.Minute)

	m.Update(idleTickMsg(time.Now()))
	if !m.idle {
		t.Fatal("idle should engage")
	}
	if !strings.Contains(m.View(), "Say anything") {
		t.Error("idle backdrop missing from view")
	}

	// Any key wakes the screen.
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	if m.idle {
		t.Error("key press should clear idle")
	}
}

func TestIdleNeverEngagesAfterFirstSend(t *testing.T) {
	m := newTestModel(t)
	m.cfg.UI.IdleSeconds = 0
	typeText(m, "Hello")
	pressEnter(m)

	m.lastInput = time.Now().Add(-time.Minute)
	m.Update(idleTickMsg(time.Now()))
	if m.idle {
		t.Error("idle backdrop must not show after the first message")
	}
}

func TestSidebarNavigation(t *testing.T) {
	m := newTestModel(t)

	// Build two saved conversations.
	typeText(m, "first topic")
	pressEnter(m)
	m.Update(replyMsg{reply: &gateway.Reply{Text: "ok", Model: "m"}})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc}) // finish reveal
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	typeText(m, "second topic")
	pressEnter(m)
	m.Update(replyMsg{reply: &gateway.Reply{Text: "ok", Model: "m"}})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if len(m.Store().Saved()) != 2 {
		t.Fatalf("saved = %d", len(m.Store().Saved()))
	}

	// Focus the sidebar and select the older chat.
	m.sidebarOpen = false
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	if m.focus != focusSidebar {
		t.Fatal("sidebar should take focus when opened")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if !strings.Contains(m.Store().Active().Preview, "first topic") {
		t.Errorf("active preview = %q, want the older chat", m.Store().Active().Preview)
	}
}

func TestMouseWheelScrollReleasesFollow(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 60; i++ {
		m.Store().AppendAssistantMessage("an older line of transcript", false)
	}
	m.refreshTranscript()
	m.viewport.GotoBottom()
	if !m.scroll.Follow() {
		t.Fatal("should start in follow mode")
	}

	for i := 0; i < 3; i++ {
		m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	}
	if m.scroll.Follow() {
		t.Error("wheel scroll up should release follow mode")
	}

	// Wheeling back to the bottom re-engages it.
	for i := 0; i < 60; i++ {
		m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	}
	if !m.scroll.Follow() {
		t.Error("returning to the bottom should re-engage follow mode")
	}
}

func TestSidebarDelete(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "only chat")
	pressEnter(m)
	m.Update(replyMsg{reply: &gateway.Reply{Text: "ok", Model: "m"}})
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	m.sidebarOpen = false
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})

	if len(m.Store().Saved()) != 0 {
		t.Errorf("saved = %d, want 0", len(m.Store().Saved()))
	}
	if !m.Store().Active().IsEmpty() {
		t.Error("deleting the active chat should fall back to a fresh draft")
	}
}
