// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/halo-universe/halo/internal/markdown"
	"github.com/halo-universe/halo/internal/model"
	"github.com/halo-universe/halo/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT MESSAGE RENDERER
// =============================================================================

// RenderMessage renders a transcript entry: a role label line followed by
// the message body. Assistant bodies go through the markdown renderer; user
// and system messages stay plain.
func RenderMessage(theme *styles.Theme, msg *model.Message, width int) string {
	var b strings.Builder

	switch msg.Role {
	case model.RoleUser:
		b.WriteString(theme.UserLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(theme.MessageBody.Width(width).Render(msg.Content))
	case model.RoleSystem:
		b.WriteString(theme.SystemNotice.Width(width).Render(msg.Content))
	default:
		b.WriteString(theme.HaloLabel.Render(msg.Role.DisplayName()))
		b.WriteString("\n")
		b.WriteString(RenderNodes(theme, markdown.Render(msg.Content), width))
	}

	return b.String()
}

// RenderNodes renders parsed markdown nodes into styled terminal text.
func RenderNodes(theme *styles.Theme, nodes []markdown.Node, width int) string {
	parts := make([]string, 0, len(nodes))

	for _, node := range nodes {
		switch node.Kind {
		case markdown.KindHeading:
			parts = append(parts, theme.Heading.Render(node.Text))
		case markdown.KindRule:
			w := width
			if w <= 0 {
				w = 40
			}
			parts = append(parts, theme.Rule.Render(strings.Repeat("─", w)))
		case markdown.KindCodeBlock:
			cb := NewCodeBlock(node.Language, node.Code)
			cb.MaxWidth = width
			parts = append(parts, cb.Render(theme))
		case markdown.KindLineBreak:
			parts = append(parts, "")
		default:
			parts = append(parts, renderParagraph(theme, node, width))
		}
	}

	return strings.Join(parts, "\n")
}

// renderParagraph styles the inline spans of a paragraph and wraps the
// result to the given width.
func renderParagraph(theme *styles.Theme, node markdown.Node, width int) string {
	var b strings.Builder
	for _, span := range node.Spans {
		switch span.Kind {
		case markdown.SpanBold:
			b.WriteString(theme.Bold.Render(span.Text))
		case markdown.SpanCode:
			b.WriteString(theme.InlineCode.Render(span.Text))
		default:
			b.WriteString(span.Text)
		}
	}

	if width <= 0 {
		return b.String()
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}
