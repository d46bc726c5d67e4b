// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea model for the HALO chat screen.
//
// The screen has three states: ready (input focused, nothing in flight),
// waiting (a send is in flight, spinner showing), and revealing (a reply is
// animating character by character). At most one send is in flight at a
// time; the store enforces that.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/halo-universe/halo/internal/config"
	"github.com/halo-universe/halo/internal/gateway"
	"github.com/halo-universe/halo/internal/model"
	"github.com/halo-universe/halo/internal/prefs"
	"github.com/halo-universe/halo/internal/reveal"
	"github.com/halo-universe/halo/internal/scroll"
	"github.com/halo-universe/halo/internal/store"
	"github.com/halo-universe/halo/internal/ui/styles"
)

// =============================================================================
// STATE
// =============================================================================

// state is the chat screen's top-level mode.
type state int

const (
	stateReady state = iota
	stateWaiting
	stateRevealing
)

// String returns a short name for the state, used in tests.
func (s state) String() string {
	switch s {
	case stateWaiting:
		return "waiting"
	case stateRevealing:
		return "revealing"
	default:
		return "ready"
	}
}

// focus identifies which pane receives keystrokes.
type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	cfg    *config.Config
	gw     *gateway.Gateway
	store  *store.Store
	engine *reveal.Engine
	scroll *scroll.Coordinator

	viewport viewport.Model
	input    textinput.Model
	search   textinput.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	state state
	focus focus

	userID string

	sidebarOpen   bool
	sidebarCursor int
	searching     bool

	deepThink bool
	webSearch bool

	// searchCtx is the augmentation prefetched when the search toggle was
	// switched on; it is consumed by the next send.
	searchCtx *model.Augmentation

	// pending is the conversation the in-flight send belongs to. The reply
	// is filed there even if the user has switched chats in the meantime.
	pending *model.Conversation

	// stopRequested hides the loading chrome after Esc. The send guard
	// stays held; the late reply is still rendered when it lands.
	stopRequested bool

	connected    bool
	backendModel string

	// revealing is the assistant message currently animating.
	revealing *model.Message
	revealGen uint64

	// Idle backdrop state. The backdrop only ever shows before the first
	// message of the session.
	everSent  bool
	idle      bool
	lastInput time.Time
}

// New creates the chat model.
func New(cfg *config.Config, gw *gateway.Gateway) *Model {
	theme := styles.NewTheme()

	input := textinput.New()
	input.Placeholder = "Message HALO..."
	input.CharLimit = 4000
	input.Focus()

	search := textinput.New()
	search.Placeholder = "Filter chats..."
	search.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.Spinner

	saved := prefs.Load()

	m := &Model{
		theme:       theme,
		keys:        DefaultKeyMap(),
		cfg:         cfg,
		gw:          gw,
		store:       store.New(),
		engine:      reveal.New(),
		scroll:      scroll.New(),
		input:       input,
		search:      search,
		spinner:     spin,
		userID:      uuid.NewString(),
		sidebarOpen: !saved.SidebarCollapsed,
		lastInput:   time.Now(),
	}
	return m
}

// Init starts the background commands.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		checkHealthCmd(m.gw),
		idleTickCmd(),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current screen state.
func (m *Model) State() state { return m.state }

// Store exposes the conversation store, mainly for tests.
func (m *Model) Store() *store.Store { return m.store }

// channelID returns the configured chat channel.
func (m *Model) channelID() string {
	return m.cfg.Backend.ChannelID
}

// sidebarList returns the conversations currently visible in the sidebar,
// honoring the active filter.
func (m *Model) sidebarList() []*model.Conversation {
	if m.searching && m.search.Value() != "" {
		return m.store.Filter(m.search.Value())
	}
	return m.store.Saved()
}

// persistSidebar saves the collapsed state for the next session.
func (m *Model) persistSidebar() {
	prefs.Save(prefs.State{SidebarCollapsed: !m.sidebarOpen})
}
