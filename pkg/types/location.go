package types

import "sort"

// OffsetSpan is a character (rune) range [Start, End).
type OffsetSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SourcePoint is a line:column position (1-based, columns count characters).
type SourcePoint struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// SourceSpan is start-end line:column range.
type SourceSpan struct {
	Start SourcePoint `json:"start"`
	End   SourcePoint `json:"end"`
}

// Location combines character offsets and source positions.
type Location struct {
	Offset OffsetSpan `json:"offset"`
	Source SourceSpan `json:"source"`
}

// Snippet is the matched text with the rest of its line on either side.
type Snippet struct {
	Before   string `json:"before"`
	Matching string `json:"matching"`
	After    string `json:"after"`
}

// ComputeLineColumn computes the 1-based line and column of a rune offset.
// Offsets past the end clamp to the position after the last rune.
func ComputeLineColumn(text []rune, offset int) (line, column int) {
	p := NewLineIndex(text).Position(offset)
	return p.Line, p.Column
}

// LineIndex answers repeated line:column lookups over one text.
type LineIndex struct {
	starts []int // rune offset of each line start
	length int
}

// NewLineIndex records where each line of text starts.
func NewLineIndex(text []rune) LineIndex {
	starts := []int{0}
	for i, r := range text {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return LineIndex{starts: starts, length: len(text)}
}

// Position returns the source point of a rune offset, clamped to the text.
func (li LineIndex) Position(offset int) SourcePoint {
	offset = max(0, min(offset, li.length))
	i := sort.SearchInts(li.starts, offset+1) - 1
	return SourcePoint{Line: i + 1, Column: offset - li.starts[i] + 1}
}

// Span returns the source span of the rune range [start, end).
func (li LineIndex) Span(start, end int) SourceSpan {
	return SourceSpan{Start: li.Position(start), End: li.Position(end)}
}

// ExtractSnippet returns the match text in [start, end) along with the rest
// of the lines it starts and ends on, each side capped at maxContext runes.
func ExtractSnippet(text []rune, start, end, maxContext int) Snippet {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}

	lineStart := start
	for lineStart > 0 && text[lineStart-1] != '\n' && start-lineStart < maxContext {
		lineStart--
	}
	lineEnd := end
	for lineEnd < len(text) && text[lineEnd] != '\n' && lineEnd-end < maxContext {
		lineEnd++
	}

	return Snippet{
		Before:   string(text[lineStart:start]),
		Matching: string(text[start:end]),
		After:    string(text[end:lineEnd]),
	}
}
