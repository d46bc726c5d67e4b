// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"strings"
	"unicode"

	"github.com/halo-universe/halo/internal/tavily"
)

// Prompt classification thresholds, measured in non-whitespace characters.
const (
	superShortChars = 10
	simpleChars     = 120
	simpleLines     = 2
)

const baseSystem = `You are HALO AI, a playful, creative, and intelligent assistant.
Always reply in a friendly, concise way with natural emojis 🎉.
Keep answers short unless the user explicitly asks for detail.`

const greetingSystem = `You are HALO AI. The user just greeted you with something very short like "Hi".
Reply with a single friendly one-liner and one emoji. Do NOT use headings, borders, or formatting.`

const formattingExtra = `

### Formatting Rules:
- Add a **title/heading** only for complex outputs, separated with a horizontal line (---).
- Use **bold text** and emojis for section headers when appropriate.
- Write in clear paragraphs, never a single block of text.
- Use **lists** (numbered or bullet points) when explaining step-by-step content.
- For stories, poems, or creative writing:
  - Begin with a **story title** styled with emoji + bold text.
  - Keep paragraphs short, descriptive, and dramatic.
  - End with a reflection, suspense, or a question if fitting.
- For code:
  - Always wrap in proper code blocks with language specified (` + "```python, ```javascript" + `, etc).
  - Include comments for clarity.`

// nonWhitespaceLen counts the characters left after stripping all whitespace.
func nonWhitespaceLen(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// isSuperShort reports whether the prompt is a bare greeting ("Hi", "Yo").
func isSuperShort(text string) bool {
	return nonWhitespaceLen(text) <= superShortChars
}

// isSimple reports whether the prompt is short enough to skip the
// formatting rules.
func isSimple(text string) bool {
	chars := nonWhitespaceLen(text)
	lines := strings.Count(text, "\n") + 1
	return chars > 0 && chars <= simpleChars && lines <= simpleLines
}

// systemPrompt builds the system prompt for a user message. Deep-think mode
// always carries the formatting rules; search results are appended as
// context the model should ground its answer in.
func systemPrompt(text string, deepThink bool, results []tavily.Result) string {
	var prompt string
	switch {
	case isSuperShort(text):
		prompt = greetingSystem
	case isSimple(text) && !deepThink:
		prompt = baseSystem
	default:
		prompt = baseSystem + formattingExtra
	}

	if len(results) > 0 {
		prompt += searchContext(results)
	}
	return prompt
}

// searchContext renders web results into a context block for the model.
func searchContext(results []tavily.Result) string {
	var b strings.Builder
	b.WriteString("\n\n### Web Search Context:\n")
	b.WriteString("Use the following search results to ground your answer. Cite sources by name when relevant.\n")
	for _, r := range results {
		b.WriteString("\n- ")
		b.WriteString(r.Title)
		b.WriteString(" (")
		b.WriteString(r.URL)
		b.WriteString("): ")
		b.WriteString(r.Content)
	}
	return b.String()
}
