// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/halo-universe/halo/internal/ui/styles"
)

// =============================================================================
// IDLE BACKDROP
// =============================================================================

// haloLogo is the idle-screen wordmark.
const haloLogo = `
 _   _    _    _     ___
| | | |  / \  | |   / _ \
| |_| | / _ \ | |  | | | |
|  _  |/ ___ \| |__| |_| |
|_| |_/_/   \_\____|\___/
`

// RenderIdle draws the centered idle backdrop shown before the first
// message when the user has been inactive for a while.
func RenderIdle(theme *styles.Theme, width, height int) string {
	content := theme.IdleLogo.Render(haloLogo) + "\n" +
		theme.IdleHint.Render("Say anything to wake me up...")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
