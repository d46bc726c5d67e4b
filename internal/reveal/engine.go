// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal drives the character-by-character typing animation for
// assistant replies.
//
// The engine is a plain state machine: the UI schedules ticks (via tea.Tick)
// and feeds them back in, so all state changes happen on the Bubble Tea
// update loop and nothing here needs locking. A generation counter makes
// ticks from a superseded reveal harmless, which is the only cancellation
// discipline the animation needs.
package reveal

import (
	"time"

	"github.com/halo-universe/halo/internal/markdown"
)

// =============================================================================
// STATES
// =============================================================================

// State is the lifecycle phase of a reveal.
type State int

const (
	StateIdle      State = iota // Nothing bound, or text shown in full
	StateRevealing              // Cursor advancing each tick
	StateComplete               // Final frame rendered, completion fired
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRevealing:
		return "revealing"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// TickInterval is the reveal cadence. 8ms is roughly 125 characters per
// second; a tuning constant, not a correctness requirement.
const TickInterval = 8 * time.Millisecond

// =============================================================================
// ENGINE
// =============================================================================

// Engine reveals one assistant message at a time. Rebinding a different
// text restarts the animation from the first character.
type Engine struct {
	state  State
	source []rune
	cursor int
	gen    uint64

	// onComplete fires exactly once, one tick after the cursor reaches the
	// end, so the final frame renders before the message is finalized.
	onComplete func()

	// onScroll fires after every advancing tick while the view follows.
	onScroll func()
}

// New creates an idle engine.
func New() *Engine {
	return &Engine{state: StateIdle}
}

// OnComplete registers the completion callback.
func (e *Engine) OnComplete(fn func()) { e.onComplete = fn }

// OnScroll registers the scroll-request callback.
func (e *Engine) OnScroll(fn func()) { e.onScroll = fn }

// Bind attaches source text to the engine. With revealing=false the text is
// shown in full immediately and the engine lands in StateComplete. Binding
// a text different from the current one resets the cursor and restarts.
// Re-binding the identical text is a no-op. Returns the generation to stamp
// on scheduled ticks.
func (e *Engine) Bind(text string, revealing bool) uint64 {
	if e.state != StateIdle && string(e.source) == text {
		return e.gen
	}

	e.gen++
	e.source = []rune(text)

	if !revealing {
		e.cursor = len(e.source)
		e.state = StateComplete
		return e.gen
	}

	e.cursor = 0
	e.state = StateRevealing
	return e.gen
}

// Stop cancels the reveal. Pending ticks become no-ops and no further
// callbacks fire.
func (e *Engine) Stop() {
	e.gen++
	e.state = StateIdle
	e.source = nil
	e.cursor = 0
}

// Tick advances the reveal by one character. Ticks stamped with a stale
// generation are discarded. Returns true while more ticks should be
// scheduled.
func (e *Engine) Tick(gen uint64) bool {
	if gen != e.gen || e.state != StateRevealing {
		return false
	}

	if e.cursor < len(e.source) {
		e.cursor++
		if e.onScroll != nil {
			e.onScroll()
		}
		return true
	}

	// One tick past the end: the final frame has rendered, finish up.
	e.state = StateComplete
	if e.onComplete != nil {
		e.onComplete()
	}
	return false
}

// Frame renders the currently revealed prefix through the markdown parser.
func (e *Engine) Frame() []markdown.Node {
	return markdown.Render(string(e.source[:e.cursor]))
}

// Shown returns the revealed prefix as plain text.
func (e *Engine) Shown() string {
	return string(e.source[:e.cursor])
}

// State returns the current lifecycle phase.
func (e *Engine) State() State { return e.state }

// Generation returns the stamp for the current binding.
func (e *Engine) Generation() uint64 { return e.gen }

// Revealing reports whether ticks still need scheduling.
func (e *Engine) Revealing() bool { return e.state == StateRevealing }
