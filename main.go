// HALO Universe TUI - A playful terminal chat client for the HALO assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/halo-universe/halo/internal/config"
	"github.com/halo-universe/halo/internal/gateway"
	"github.com/halo-universe/halo/internal/ui/chat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "halo: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	gw := gateway.New(cfg.Backend.URL).WithTimeout(cfg.Backend.Timeout)

	p := tea.NewProgram(
		chat.New(cfg, gw),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "halo: %v\n", err)
		os.Exit(1)
	}
}
