package lang

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sergev/sour/parser"
)

// ErrorKind classifies runtime failures.
type ErrorKind int

const (
	ReferenceError ErrorKind = iota
	RangeError
)

func (k ErrorKind) String() string {
	if k == ReferenceError {
		return "ReferenceError"
	}
	return "RangeError"
}

// StackEntry is one active call at the time of a runtime error.
type StackEntry struct {
	Name string
	Path string
	Pos  parser.Position
}

func (e StackEntry) String() string {
	path := e.Path
	if path == "" {
		path = "input"
	}
	return fmt.Sprintf("at %s (%s:%d:%d)", e.Name, path, e.Pos.Line, e.Pos.Column)
}

// RuntimeError aborts interpretation. Stack lists the innermost call first.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Stack   []StackEntry
	Cause   error
}

func (e *RuntimeError) Error() string {
	return e.Kind.String() + ": " + e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// Trace renders the message followed by one `at` line per stack entry.
func (e *RuntimeError) Trace() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, entry := range e.Stack {
		b.WriteString("\n    ")
		b.WriteString(entry.String())
	}
	return b.String()
}

func referenceErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: ReferenceError, Message: fmt.Sprintf(format, args...)}
}

// RangeErrorf builds a RangeError; natives use it for invalid arguments.
func RangeErrorf(format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: RangeError, Message: fmt.Sprintf(format, args...)}
}

// asRuntimeError converts any error into a RuntimeError. Foreign errors
// become RangeErrors.
func asRuntimeError(err error) *RuntimeError {
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &RuntimeError{Kind: RangeError, Message: err.Error(), Cause: err}
}
