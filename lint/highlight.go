// Package lint derives editor features from a validation result: syntax
// highlighting, bracket matching, hover documentation and completion.
package lint

import (
	"unicode/utf8"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/spantext"
)

// Highlight classes.
const (
	ClassKeyword     = "keyword"
	ClassNumber      = "number"
	ClassString      = "string"
	ClassComment     = "comment"
	ClassOperator    = "operator"
	ClassPunctuation = "punctuation"
	ClassVariable    = "variable"
	ClassFunction    = "function"
	ClassType        = "type"
	ClassProperty    = "property"
	ClassParameter   = "parameter"
	ClassUnused      = "unused"
)

var tokenClasses = map[parser.TokenType]string{
	parser.TokenKeyword: ClassKeyword,
	parser.TokenInt:     ClassNumber,
	parser.TokenString:  ClassString,
	parser.TokenChar:    ClassString,
	parser.TokenComment: ClassComment,
	parser.TokenOp:      ClassOperator,
	parser.TokenPunc:    ClassPunctuation,
}

// Highlight styles text, which must hold the source of res.File. Tokens
// are coloured by kind, identifiers by the role the validator gave them.
// Unused declarations are dimmed and diagnostics of this file marked.
func Highlight(res *check.Result, text *spantext.Text) {
	if res.File == nil {
		return
	}
	for _, tok := range res.File.Tokens {
		if class, ok := tokenClasses[tok.Type]; ok {
			text.Color(tok.Start.Index, tok.End.Index, class)
		}
	}

	props := make(map[*check.Var]bool)
	for _, sym := range res.Info.Defs {
		if c, ok := sym.(*check.Class); ok {
			for _, p := range c.Props {
				props[p] = true
			}
		}
	}
	color := func(id *parser.Ident, class string) {
		if id != nil {
			text.Color(id.Span().Start.Index, id.Span().End.Index, class)
		}
	}
	for _, n := range res.File.Body {
		parser.Inspect(n, func(n parser.Node) bool {
			switch n := n.(type) {
			case *parser.TypeRef:
				color(n.Name, ClassType)
			case *parser.Dot:
				color(n.Name, ClassProperty)
			case *parser.ClassDecl:
				for _, g := range n.Generic {
					color(g, ClassType)
				}
			case *parser.Ident:
				if sym, ok := res.Info.Refs[n]; ok {
					color(n, symbolClass(sym, props))
				}
			}
			return true
		})
	}
	for n, sym := range res.Info.Defs {
		id := check.DeclName(n)
		if id == nil {
			continue
		}
		color(id, symbolClass(sym, props))
		if !used(sym) {
			color(id, ClassUnused)
		}
	}
	for _, e := range res.Errors {
		if e.Path == res.Path {
			end := e.End.Index
			if end <= e.Start.Index {
				end = e.Start.Index + 1
				if src := text.Source(); e.Start.Index < len(src) {
					_, size := utf8.DecodeRuneInString(src[e.Start.Index:])
					end = e.Start.Index + size
				}
			}
			text.Error(e.Start.Index, end)
		}
	}
}

func symbolClass(sym check.Symbol, props map[*check.Var]bool) string {
	switch s := sym.(type) {
	case *check.Func:
		return ClassFunction
	case *check.Class:
		return ClassType
	case *check.Var:
		switch {
		case props[s]:
			return ClassProperty
		case isParam(s):
			return ClassParameter
		}
	}
	return ClassVariable
}

func isParam(v *check.Var) bool {
	_, ok := v.Node.(*parser.Param)
	return ok
}

func used(sym check.Symbol) bool {
	switch s := sym.(type) {
	case *check.Var:
		return s.Used || s.Builtin || s.Name == "this"
	case *check.Func:
		return s.Used || s.Builtin || s.Name == "init" || s.Owner != nil
	case *check.Class:
		return s.Used || s.Builtin
	}
	return true
}
