package check

import (
	"github.com/sergev/sour/parser"
)

// Info records what validation learned about each node. The AST itself is
// never modified.
type Info struct {
	Types   map[parser.Node]Type       // static type of each expression
	Calls   map[parser.Node]*Func      // overload chosen for calls, operators, indexing, `++` and `new`
	Stores  map[parser.Node]*Func      // `_set` used by `++` on an index expression
	Defs    map[parser.Node]Symbol     // declaration node to the symbol it introduced
	Refs    map[*parser.Ident]Symbol   // identifier to the symbol it names
	Imports map[*parser.Import]*Result // validated import targets
	Scopes  []ScopeSpan                // lexical scopes in creation order
}

// ScopeSpan ties a scope to the source range it covers.
type ScopeSpan struct {
	Span  parser.Span
	Scope *Scope
}

// NewInfo returns an empty side table.
func NewInfo() *Info {
	return &Info{
		Types:   make(map[parser.Node]Type),
		Calls:   make(map[parser.Node]*Func),
		Stores:  make(map[parser.Node]*Func),
		Defs:    make(map[parser.Node]Symbol),
		Refs:    make(map[*parser.Ident]Symbol),
		Imports: make(map[*parser.Import]*Result),
	}
}

// TypeOf returns the recorded type of an expression, or Invalid.
func (in *Info) TypeOf(n parser.Node) Type {
	if t, ok := in.Types[n]; ok {
		return t
	}
	return Invalid
}

// ScopeAt returns the innermost scope whose span contains the byte offset.
func (in *Info) ScopeAt(index int) *Scope {
	var best *Scope
	bestSize := -1
	for _, ss := range in.Scopes {
		if index < ss.Span.Start.Index || index > ss.Span.End.Index {
			continue
		}
		size := ss.Span.End.Index - ss.Span.Start.Index
		if best == nil || size <= bestSize {
			best, bestSize = ss.Scope, size
		}
	}
	return best
}

// SymbolAt returns the symbol named by the identifier covering the offset.
func (in *Info) SymbolAt(index int) (*parser.Ident, Symbol) {
	for id, sym := range in.Refs {
		if id.Span().Contains(index) {
			return id, sym
		}
	}
	for n, sym := range in.Defs {
		if id := DeclName(n); id != nil && id.Span().Contains(index) {
			return id, sym
		}
	}
	return nil, nil
}

// DeclName returns the identifier a declaration node introduces, or nil.
func DeclName(n parser.Node) *parser.Ident {
	switch n := n.(type) {
	case *parser.FuncDecl:
		return n.Name
	case *parser.VarDecl:
		return n.Name
	case *parser.ClassDecl:
		return n.Name
	case *parser.Param:
		return n.Name
	}
	return nil
}
