// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scroll decides when the chat view auto-follows new content.
//
// A manual scroll up hands control to the user; follow mode switches back on
// when the user returns close to the bottom or jumps there explicitly. The
// thresholds mirror what feels right in practice: the re-engage distance is
// tight (a few lines) after a deliberate scroll-up, looser otherwise.
package scroll

// =============================================================================
// THRESHOLDS
// =============================================================================

const (
	// reengageDistance is how close to the bottom (in lines) the user must
	// return after a manual scroll-up before follow mode re-engages.
	reengageDistance = 2

	// nearBottomDistance governs follow mode when no manual scroll-up is
	// pending: inside it we follow, outside it we don't.
	nearBottomDistance = 10
)

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator tracks whether the viewport should chase new content.
type Coordinator struct {
	follow       bool
	manualScroll bool
	lastOffset   int
}

// New creates a coordinator in follow mode.
func New() *Coordinator {
	return &Coordinator{follow: true}
}

// Follow reports whether new content should scroll into view.
func (c *Coordinator) Follow() bool {
	return c.follow
}

// Observe processes a viewport position change. offset is the current top
// line, distanceFromBottom how many lines remain below the view.
func (c *Coordinator) Observe(offset, distanceFromBottom int) {
	scrolledUp := offset < c.lastOffset
	c.lastOffset = offset

	if scrolledUp {
		c.manualScroll = true
		c.follow = false
		return
	}

	if c.manualScroll {
		if distanceFromBottom <= reengageDistance {
			c.manualScroll = false
			c.follow = true
		}
		return
	}

	c.follow = distanceFromBottom <= nearBottomDistance
}

// JumpToBottom re-engages follow mode explicitly.
func (c *Coordinator) JumpToBottom() {
	c.manualScroll = false
	c.follow = true
}

// Reset restores the initial following state, e.g. when a new message is
// submitted and the view snaps to the latest content.
func (c *Coordinator) Reset() {
	c.manualScroll = false
	c.follow = true
	c.lastOffset = 0
}
