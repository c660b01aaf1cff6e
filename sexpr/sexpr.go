// Package sexpr renders Sour syntax trees as s-expressions for debugging and
// golden tests.
package sexpr

import (
	"strconv"
	"strings"

	"github.com/sergev/sour/parser"
)

// FormatFile renders every top-level node of the file, one per line.
func FormatFile(file *parser.File) string {
	var b strings.Builder
	for _, n := range file.Body {
		b.WriteString(Format(n))
		b.WriteByte('\n')
	}
	return b.String()
}

// Format renders a single node.
func Format(n parser.Node) string {
	var w writer
	w.node(n)
	return w.String()
}

type writer struct {
	strings.Builder
}

func (w *writer) open(head string) {
	w.WriteByte('(')
	w.WriteString(head)
}

func (w *writer) close() {
	w.WriteByte(')')
}

func (w *writer) atom(s string) {
	w.WriteByte(' ')
	w.WriteString(s)
}

func (w *writer) child(n parser.Node) {
	w.WriteByte(' ')
	w.node(n)
}

func (w *writer) block(head string, body []parser.Node) {
	w.WriteByte(' ')
	w.open(head)
	for _, n := range body {
		w.child(n)
	}
	w.close()
}

func (w *writer) typ(t *parser.TypeRef) {
	if t == nil {
		w.atom("_")
		return
	}
	w.WriteByte(' ')
	w.typeRef(t)
}

func (w *writer) typeRef(t *parser.TypeRef) {
	if len(t.Args) == 0 {
		w.WriteString(t.Name.Name)
		return
	}
	w.open(t.Name.Name)
	for _, a := range t.Args {
		w.typ(a)
	}
	w.close()
}

func (w *writer) params(params []*parser.Param) {
	w.WriteString(" (")
	for i, p := range params {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.open(p.Name.Name)
		w.typ(p.Type)
		w.close()
	}
	w.close()
}

func (w *writer) generic(names []*parser.Ident) {
	if len(names) == 0 {
		return
	}
	w.WriteString(" <")
	for i, g := range names {
		if i > 0 {
			w.WriteByte(' ')
		}
		w.WriteString(g.Name)
	}
	w.WriteByte('>')
}

func (w *writer) node(n parser.Node) {
	if n == nil {
		w.WriteString("nil")
		return
	}
	switch n := n.(type) {
	case *parser.Bad:
		w.open("bad")
		w.atom(strconv.Quote(n.Token.Value))
	case *parser.Ident:
		w.WriteString(n.Name)
		return
	case *parser.NumLit:
		w.WriteString(strconv.FormatInt(n.Value, 10))
		return
	case *parser.StrLit:
		w.WriteString(strconv.Quote(n.Value))
		return
	case *parser.CharLit:
		w.WriteString(strconv.QuoteRune(n.Value))
		return
	case *parser.TypeRef:
		w.typeRef(n)
		return
	case *parser.Param:
		w.open("param")
		w.atom(n.Name.Name)
		w.typ(n.Type)
	case *parser.FuncDecl:
		w.open("func")
		w.atom(n.Name.Name)
		w.params(n.Params)
		w.typ(n.Ret)
		w.block("body", n.Body)
	case *parser.FuncDef:
		w.open("func-def")
		w.atom(n.Name.Name)
		w.params(n.Params)
		w.typ(n.Ret)
	case *parser.VarDecl:
		w.open("var")
		w.atom(n.Name.Name)
		w.typ(n.Type)
		if n.Value != nil {
			w.child(n.Value)
		}
	case *parser.VarDef:
		w.open("var-def")
		w.atom(n.Name.Name)
		w.typ(n.Type)
	case *parser.ClassDecl:
		w.open("class")
		w.atom(n.Name.Name)
		w.generic(n.Generic)
		for _, p := range n.Props {
			w.child(p)
		}
		for _, m := range n.Methods {
			w.child(m)
		}
	case *parser.ClassDef:
		w.open("class-def")
		w.atom(n.Name.Name)
		w.generic(n.Generic)
		if n.IsType {
			w.atom(":type")
		}
		for _, p := range n.Props {
			w.child(p)
		}
		for _, m := range n.Methods {
			w.child(m)
		}
	case *parser.If:
		w.open("if")
		w.child(n.Cond)
		w.block("then", n.Then)
		if n.Else != nil {
			w.block("else", n.Else)
		}
	case *parser.For:
		w.open("for")
		w.child(n.Init)
		w.child(n.Cond)
		w.child(n.Step)
		w.block("body", n.Body)
	case *parser.While:
		w.open("while")
		w.child(n.Cond)
		w.block("body", n.Body)
	case *parser.Return:
		w.open("return")
		if n.Value != nil {
			w.child(n.Value)
		}
	case *parser.Break:
		w.open("break")
	case *parser.Export:
		w.open("export")
		w.child(n.Decl)
	case *parser.Import:
		w.open("import")
		w.atom(strconv.Quote(n.Path.Value))
	case *parser.New:
		w.open("new")
		w.typ(n.Class)
		for _, a := range n.Args {
			w.child(a)
		}
	case *parser.Call:
		w.open("call")
		w.child(n.Callee)
		for _, a := range n.Args {
			w.child(a)
		}
	case *parser.Binary:
		w.open(n.Op.Value)
		w.child(n.Left)
		w.child(n.Right)
	case *parser.Unary:
		w.open(n.Op.Value)
		w.child(n.Operand)
	case *parser.Dot:
		w.open(".")
		w.child(n.Left)
		w.atom(n.Name.Name)
	case *parser.Assign:
		w.open("=")
		w.child(n.Target)
		w.child(n.Value)
	case *parser.Index:
		w.open("[]")
		w.child(n.Left)
		w.child(n.Index)
	case *parser.Print:
		w.open("print")
		w.child(n.Value)
	default:
		w.open(n.Kind().String())
	}
	w.close()
}
