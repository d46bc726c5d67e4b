// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown provides the lightweight line-oriented markdown parser
// used to render assistant replies.
//
// This is deliberately not a full markdown grammar: replies only ever use a
// small dialect (headings, fenced code, rules, bold and inline code), and a
// heuristic keeps short replies from being auto-titled. The parser is a pure
// function: identical input yields structurally identical output, which the
// typing animation relies on when re-rendering a growing prefix every tick.
package markdown

import "strings"

// =============================================================================
// SHORT-FORM CLASSIFICATION
// =============================================================================

const (
	// shortFormMaxChars is the non-whitespace character budget under which
	// a reply is treated as short form.
	shortFormMaxChars = 120

	// shortFormMaxLines is the line budget for short-form classification.
	shortFormMaxLines = 6
)

// isShortForm reports whether the whole input should suppress heading and
// horizontal-rule recognition, so a brief reply is never auto-titled.
func isShortForm(text string, lineCount int) bool {
	chars := 0
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			chars++
		}
	}
	return chars <= shortFormMaxChars && lineCount <= shortFormMaxLines
}

// =============================================================================
// BLOCK PARSER
// =============================================================================

// Render parses text into an ordered sequence of block nodes.
// Pure and deterministic; empty input yields an empty slice.
func Render(text string) []Node {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	shortForm := isShortForm(text, len(lines))

	var nodes []Node
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		switch {
		case strings.HasPrefix(line, "```"):
			// A fence consumes everything up to the closing fence; an
			// unclosed fence consumes the remainder of the input.
			lang := strings.TrimSpace(strings.TrimPrefix(line, "```"))
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(lines[i], "```") {
				code = append(code, lines[i])
				i++
			}
			nodes = append(nodes, Node{
				Kind:     KindCodeBlock,
				Language: lang,
				Code:     strings.Join(code, "\n"),
			})

		case !shortForm && headingLevel(line) > 0:
			level := headingLevel(line)
			nodes = append(nodes, Node{
				Kind:  KindHeading,
				Level: level,
				Text:  line[level+1:],
			})

		case !shortForm && strings.TrimSpace(line) == "---":
			nodes = append(nodes, Node{Kind: KindRule})

		case strings.TrimSpace(line) == "":
			nodes = append(nodes, Node{Kind: KindLineBreak})

		default:
			nodes = append(nodes, Node{
				Kind:  KindParagraph,
				Spans: parseInline(line),
			})
		}
	}

	return collapseEchoedTitle(nodes)
}

// headingLevel returns 1-3 for "# ", "## ", "### " prefixes, else 0.
func headingLevel(line string) int {
	for level := 1; level <= 3; level++ {
		marker := strings.Repeat("#", level) + " "
		if strings.HasPrefix(line, marker) {
			return level
		}
	}
	return 0
}

// =============================================================================
// SELF-ECHOING TITLE COLLAPSE
// =============================================================================

// collapseEchoedTitle drops a redundant [heading, rule] pair when the model
// echoes its own title as the first paragraph (e.g. "Hello!" / "---" /
// "Hello! How can I help?").
func collapseEchoedTitle(nodes []Node) []Node {
	if len(nodes) < 3 {
		return nodes
	}
	if nodes[0].Kind != KindHeading || nodes[1].Kind != KindRule || nodes[2].Kind != KindParagraph {
		return nodes
	}

	heading := strings.ToLower(strings.TrimSpace(nodes[0].Text))
	para := strings.ToLower(strings.TrimSpace(nodes[2].FlattenText()))
	if heading == "" || para == "" {
		return nodes
	}

	if para == heading || strings.HasPrefix(para, heading) || strings.Contains(para, heading) {
		return nodes[2:]
	}
	return nodes
}
