// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scroll decides when the chat view auto-follows new content.
package scroll

import "testing"

func TestStartsFollowing(t *testing.T) {
	c := New()
	if !c.Follow() {
		t.Error("Expected follow mode on by default")
	}
}

func TestManualScrollUpDisablesFollow(t *testing.T) {
	c := New()
	c.Observe(50, 0) // content grew, at bottom
	c.Observe(30, 20)

	if c.Follow() {
		t.Error("Scrolling up must disable follow mode")
	}
}

func TestReturnToBottomReengages(t *testing.T) {
	c := New()
	c.Observe(50, 0)
	c.Observe(30, 20) // manual scroll up

	c.Observe(45, 5) // drifting down, still away
	if c.Follow() {
		t.Error("Follow must stay off until close to the bottom")
	}

	c.Observe(49, 1)
	if !c.Follow() {
		t.Error("Returning to the bottom must re-engage follow mode")
	}
}

func TestJumpToBottom(t *testing.T) {
	c := New()
	c.Observe(50, 0)
	c.Observe(10, 40)
	if c.Follow() {
		t.Fatal("precondition: follow off after scroll up")
	}

	c.JumpToBottom()
	if !c.Follow() {
		t.Error("Explicit jump must re-engage follow mode")
	}
}

func TestNearBottomHeuristicWithoutManualScroll(t *testing.T) {
	c := New()
	c.Observe(10, 8)
	if !c.Follow() {
		t.Error("Near the bottom without a manual scroll: keep following")
	}

	c.Observe(10, 30) // content grew a lot below, same offset
	if c.Follow() {
		t.Error("Far from the bottom: stop following")
	}
}

func TestResetRestoresFollow(t *testing.T) {
	c := New()
	c.Observe(50, 0)
	c.Observe(10, 40)
	c.Reset()
	if !c.Follow() {
		t.Error("Reset must restore follow mode")
	}
}
