package parser

import (
	"fmt"
	"unicode/utf8"
)

// Position tracks a source location within a Sour source file.
type Position struct {
	Index  int // zero-based byte offset
	Line   int // one-based line number
	Column int // one-based column number (rune count)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open [Start, End) range of source text.
type Span struct {
	Start Position
	End   Position
}

// Contains reports whether the byte offset lies inside the span.
func (s Span) Contains(index int) bool {
	return index >= s.Start.Index && index < s.End.Index
}

// CharStream is a rune cursor over source text with position tracking.
type CharStream struct {
	src string
	pos Position
}

// NewCharStream returns a stream positioned at the start of src.
func NewCharStream(src string) *CharStream {
	return &CharStream{
		src: src,
		pos: Position{Index: 0, Line: 1, Column: 1},
	}
}

// Peek returns the rune n positions ahead without consuming it, or 0 past the end.
func (cs *CharStream) Peek(n int) rune {
	idx := cs.pos.Index
	for ; n > 0; n-- {
		if idx >= len(cs.src) {
			return 0
		}
		_, w := utf8.DecodeRuneInString(cs.src[idx:])
		idx += w
	}
	if idx >= len(cs.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(cs.src[idx:])
	return r
}

// Next consumes one rune. At the end of input it returns 0 and does not move.
func (cs *CharStream) Next() rune {
	if cs.pos.Index >= len(cs.src) {
		return 0
	}
	r, w := utf8.DecodeRuneInString(cs.src[cs.pos.Index:])
	cs.pos.Index += w
	if r == '\n' {
		cs.pos.Line++
		cs.pos.Column = 0
	}
	cs.pos.Column++
	return r
}

// Has reports whether unread input remains.
func (cs *CharStream) Has() bool {
	return cs.pos.Index < len(cs.src)
}

// Position returns a copy of the current position.
func (cs *CharStream) Position() Position {
	return cs.pos
}

// Source returns the underlying text.
func (cs *CharStream) Source() string {
	return cs.src
}
