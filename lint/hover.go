package lint

import (
	"strings"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
)

// HoverInfo describes the symbol under the cursor.
type HoverInfo struct {
	Span      parser.Span
	Kind      string // "function", "method", "variable", "parameter", "property" or "class"
	Signature string
	Doc       string
}

// Hover returns documentation for the identifier covering index, or nil.
func Hover(res *check.Result, index int) *HoverInfo {
	if res.Info == nil {
		return nil
	}
	id, sym := res.Info.SymbolAt(index)
	if id == nil {
		return nil
	}
	h := &HoverInfo{Span: id.Span()}
	switch s := sym.(type) {
	case *check.Func:
		h.Kind = "function"
		if s.Owner != nil {
			h.Kind = "method"
		}
		h.Signature = funcSignature(s)
		h.Doc = s.Doc
	case *check.Var:
		h.Kind = "variable"
		if isParam(s) {
			h.Kind = "parameter"
		} else if isProp(res.Info, s) {
			h.Kind = "property"
		}
		h.Signature = "var " + s.Name
		if s.Type != nil {
			h.Signature += ": " + s.Type.String()
		}
		h.Doc = s.Doc
	case *check.Class:
		h.Kind = "class"
		h.Signature = "class " + s.Name
		if len(s.Generic) > 0 {
			h.Signature += "<" + strings.Join(s.Generic, ", ") + ">"
		}
		h.Doc = s.Doc
	default:
		return nil
	}
	return h
}

// funcSignature renders `func Owner.name(a: T): R`.
func funcSignature(fn *check.Func) string {
	var b strings.Builder
	b.WriteString("func ")
	if fn.Owner != nil {
		b.WriteString(fn.Owner.Name)
		b.WriteByte('.')
	}
	b.WriteString(fn.Name)
	b.WriteByte('(')
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	if fn.Ret != nil && fn.Ret != check.Type(check.Void) {
		b.WriteString(": ")
		b.WriteString(fn.Ret.String())
	}
	return b.String()
}

func isProp(info *check.Info, v *check.Var) bool {
	for _, sym := range info.Refs {
		if c, ok := sym.(*check.Class); ok && c.Prop(v.Name) == v {
			return true
		}
	}
	for _, sym := range info.Defs {
		if c, ok := sym.(*check.Class); ok && c.Prop(v.Name) == v {
			return true
		}
	}
	return false
}
