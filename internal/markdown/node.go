// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown provides the lightweight line-oriented markdown parser
// used to render assistant replies.
package markdown

import "strings"

// =============================================================================
// NODE TYPES
// =============================================================================

// Kind identifies a block node type.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindCodeBlock
	KindRule
	KindLineBreak
)

// String returns a short name for the kind, used in tests and debugging.
func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindCodeBlock:
		return "code"
	case KindRule:
		return "rule"
	case KindLineBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Node is a single block-level element of a rendered reply.
type Node struct {
	Kind Kind

	// Heading fields
	Level int    // 1-3, heading only
	Text  string // heading only

	// Code block fields
	Language string
	Code     string

	// Paragraph content
	Spans []Span
}

// FlattenText returns the plain text of a paragraph node, delimiters removed.
func (n Node) FlattenText() string {
	if n.Kind == KindHeading {
		return n.Text
	}
	var sb strings.Builder
	for _, span := range n.Spans {
		sb.WriteString(span.Text)
	}
	return sb.String()
}

// =============================================================================
// INLINE SPANS
// =============================================================================

// SpanKind identifies an inline span type.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanBold
	SpanCode
)

// Span is an inline run of text within a paragraph.
type Span struct {
	Kind SpanKind
	Text string
}
