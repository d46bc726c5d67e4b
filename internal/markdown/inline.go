// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown provides the lightweight line-oriented markdown parser
// used to render assistant replies.
package markdown

import "strings"

// parseInline splits a paragraph line into plain, bold, and inline-code
// spans. Backtick spans are matched first; `**` bold is applied within the
// remaining text. Delimiters do not nest and are matched greedily
// left-to-right, non-overlapping. An unmatched delimiter stays literal.
func parseInline(line string) []Span {
	var spans []Span
	for _, part := range splitDelimited(line, "`") {
		if part.delimited {
			spans = append(spans, Span{Kind: SpanCode, Text: part.text})
			continue
		}
		for _, bold := range splitDelimited(part.text, "**") {
			if bold.text == "" {
				continue
			}
			kind := SpanPlain
			if bold.delimited {
				kind = SpanBold
			}
			spans = append(spans, Span{Kind: kind, Text: bold.text})
		}
	}
	return spans
}

// segment is a run of text, flagged when it sat between a delimiter pair.
type segment struct {
	text      string
	delimited bool
}

// splitDelimited walks text left to right pairing up occurrences of delim.
// A trailing unpaired delimiter is kept as literal text.
func splitDelimited(text, delim string) []segment {
	var segs []segment
	for {
		open := strings.Index(text, delim)
		if open < 0 {
			break
		}
		close := strings.Index(text[open+len(delim):], delim)
		if close < 0 {
			break
		}
		inner := text[open+len(delim) : open+len(delim)+close]
		// Empty pairs ("``", "****") carry no content; keep them literal.
		if inner == "" {
			break
		}
		if open > 0 {
			segs = append(segs, segment{text: text[:open]})
		}
		segs = append(segs, segment{text: inner, delimited: true})
		text = text[open+len(delim)+close+len(delim):]
	}
	if text != "" || len(segs) == 0 {
		segs = append(segs, segment{text: text})
	}
	return segs
}
