package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ErrorKind classifies diagnostics by the stage that produced them.
type ErrorKind int

const (
	LexError ErrorKind = iota
	ParseError
	CompileError
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lexical error"
	case ParseError:
		return "parse error"
	case CompileError:
		return "compile error"
	default:
		return "error"
	}
}

// Error is a source-located diagnostic.
type Error struct {
	Kind       ErrorKind
	Message    string
	Start      Position
	End        Position
	Path       string
	Source     string
	Incomplete bool // input ended before the construct was complete
}

// NewError builds a diagnostic covering the given span.
func NewError(kind ErrorKind, span Span, path, src, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Start:   span.Start,
		End:     span.End,
		Path:    path,
		Source:  src,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	path := e.Path
	if path == "" {
		path = "input"
	}
	return fmt.Sprintf("%s:%d:%d: %s", path, e.Start.Line, e.Start.Column, e.Message)
}

// Span returns the range the diagnostic covers.
func (e *Error) Span() Span {
	return Span{Start: e.Start, End: e.End}
}

// Snippet renders the message followed by the offending source line with the
// error range underlined.
//
//	main.sour:2:5: 'foo' is not a function
//	   2 | foo(1)
//	     | ^^^
func (e *Error) Snippet() string {
	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteByte('\n')
	lines := strings.Split(e.Source, "\n")
	line := e.Start.Line
	if line < 1 || line > len(lines) {
		return b.String()
	}
	text := strings.TrimRight(lines[line-1], "\r")
	fmt.Fprintf(&b, "%4d | %s\n", line, text)

	runes := []rune(text)
	startCol := clamp(e.Start.Column-1, 0, len(runes))
	endCol := len(runes)
	if e.End.Line == e.Start.Line {
		endCol = clamp(e.End.Column-1, startCol, len(runes))
	}
	pad := runewidth.StringWidth(string(runes[:startCol]))
	width := runewidth.StringWidth(string(runes[startCol:endCol]))
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(&b, "     | %s%s\n", strings.Repeat(" ", pad), strings.Repeat("^", width))
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsIncomplete reports whether the supplied error represents incomplete input.
func IsIncomplete(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Incomplete
	}
	return false
}

// AnyIncomplete reports whether any diagnostic in the list marks incomplete input.
func AnyIncomplete(errs []*Error) bool {
	for _, e := range errs {
		if e.Incomplete {
			return true
		}
	}
	return false
}

// ErrorList joins several diagnostics into one error value.
type ErrorList []*Error

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the individual diagnostics to errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Err returns nil for an empty list.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
