// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prefs persists small pieces of UI state between sessions.
//
// State lives in ~/.halo/state.json. Loading and saving are explicit; a
// missing or corrupt file yields the defaults rather than an error so a
// bad state file never blocks startup.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/halo-universe/halo/internal/config"
)

// State is the persisted UI state.
type State struct {
	// SidebarCollapsed records whether the history sidebar was hidden.
	SidebarCollapsed bool `json:"sidebarCollapsed"`
}

const stateFile = "state.json"

// Load reads the persisted state, returning defaults on any failure.
func Load() State {
	var s State

	dir, err := config.Dir()
	if err != nil {
		return s
	}
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}
	}
	return s
}

// Save writes the state, creating ~/.halo if needed.
func Save(s State) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, stateFile), data, 0o644)
}
