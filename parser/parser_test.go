package parser

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	file, errs := Parse(src, "test.sour")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", ErrorList(errs))
	}
	return file
}

func TestParseFunction(t *testing.T) {
	src := `
// Computes n!
func fact(n: byte): byte {
	if (n == 0) {
		return 1
	}
	return n * fact(n - 1)
}
`
	file := mustParse(t, src)
	if len(file.Body) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(file.Body))
	}
	fn, ok := file.Body[0].(*FuncDecl)
	if !ok {
		t.Fatalf("expected FuncDecl, got %T", file.Body[0])
	}
	if fn.Name.Name != "fact" || fn.Doc != "Computes n!" {
		t.Fatalf("unexpected name/doc %q/%q", fn.Name.Name, fn.Doc)
	}
	if len(fn.Params) != 1 || fn.Params[0].Name.Name != "n" || fn.Params[0].Type.Name.Name != "byte" {
		t.Fatalf("unexpected params %+v", fn.Params)
	}
	if fn.Ret == nil || fn.Ret.Name.Name != "byte" {
		t.Fatalf("expected byte return type")
	}
	if len(fn.Body) != 2 {
		t.Fatalf("expected 2 statements in body, got %d", len(fn.Body))
	}
	ifStmt, ok := fn.Body[0].(*If)
	if !ok {
		t.Fatalf("expected If, got %T", fn.Body[0])
	}
	if cond, ok := ifStmt.Cond.(*Binary); !ok || cond.Kind() != KindOp2 {
		t.Fatalf("expected == condition, got %T", ifStmt.Cond)
	}
	ret, ok := fn.Body[1].(*Return)
	if !ok {
		t.Fatalf("expected Return, got %T", fn.Body[1])
	}
	mul, ok := ret.Value.(*Binary)
	if !ok || mul.Op.Value != "*" {
		t.Fatalf("expected multiplication, got %T", ret.Value)
	}
	if _, ok := mul.Right.(*Call); !ok {
		t.Fatalf("expected call on the right, got %T", mul.Right)
	}
}

func TestParseBinaryRightAssociative(t *testing.T) {
	file := mustParse(t, "a - b - c")
	outer, ok := file.Body[0].(*Binary)
	if !ok {
		t.Fatalf("expected Binary, got %T", file.Body[0])
	}
	if _, ok := outer.Left.(*Ident); !ok {
		t.Fatalf("left operand should be a plain identifier, got %T", outer.Left)
	}
	inner, ok := outer.Right.(*Binary)
	if !ok || inner.Op.Value != "-" {
		t.Fatalf("expected nested subtraction on the right, got %T", outer.Right)
	}
}

func TestParsePostfixChain(t *testing.T) {
	file := mustParse(t, `m.items[0].name = "x"`)
	assign, ok := file.Body[0].(*Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", file.Body[0])
	}
	dot, ok := assign.Target.(*Dot)
	if !ok || dot.Name.Name != "name" {
		t.Fatalf("expected .name target, got %T", assign.Target)
	}
	idx, ok := dot.Left.(*Index)
	if !ok {
		t.Fatalf("expected Index, got %T", dot.Left)
	}
	if _, ok := idx.Left.(*Dot); !ok {
		t.Fatalf("expected m.items, got %T", idx.Left)
	}
	if s, ok := assign.Value.(*StrLit); !ok || s.Value != "x" {
		t.Fatalf("expected string value, got %T", assign.Value)
	}
}

func TestParseClassAndNew(t *testing.T) {
	src := `
export class Box<T> {
	var value: T
	func get(): T { return value }
}
var b = new Box<byte>()
b.value++
`
	file := mustParse(t, src)
	if len(file.Body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(file.Body))
	}
	exp, ok := file.Body[0].(*Export)
	if !ok {
		t.Fatalf("expected Export, got %T", file.Body[0])
	}
	class, ok := exp.Decl.(*ClassDecl)
	if !ok {
		t.Fatalf("expected ClassDecl, got %T", exp.Decl)
	}
	if len(class.Generic) != 1 || len(class.Props) != 1 || len(class.Methods) != 1 {
		t.Fatalf("unexpected class shape %+v", class)
	}
	decl := file.Body[1].(*VarDecl)
	n, ok := decl.Value.(*New)
	if !ok {
		t.Fatalf("expected New, got %T", decl.Value)
	}
	if n.Class.Name.Name != "Box" || len(n.Class.Args) != 1 || n.Class.Args[0].Name.Name != "byte" {
		t.Fatalf("unexpected type ref %+v", n.Class)
	}
	if u, ok := file.Body[2].(*Unary); !ok || u.Op.Value != "++" {
		t.Fatalf("expected increment, got %T", file.Body[2])
	}
}

func TestParseLoopsAndImports(t *testing.T) {
	src := `
import * from "lib/util"
for (var i = 0; i < 10; i++) {
	if (i == 5) { break }
}
while (x) { x = false } else_ = 1
`
	file := mustParse(t, src)
	imp, ok := file.Body[0].(*Import)
	if !ok || imp.Path.Value != "lib/util" {
		t.Fatalf("unexpected import %+v", file.Body[0])
	}
	loop, ok := file.Body[1].(*For)
	if !ok {
		t.Fatalf("expected For, got %T", file.Body[1])
	}
	if _, ok := loop.Init.(*VarDecl); !ok {
		t.Fatalf("expected var init, got %T", loop.Init)
	}
	inner := loop.Body[0].(*If)
	if _, ok := inner.Then[0].(*Break); !ok {
		t.Fatalf("expected break, got %T", inner.Then[0])
	}
	if _, ok := file.Body[2].(*While); !ok {
		t.Fatalf("expected While, got %T", file.Body[2])
	}
	if _, ok := file.Body[3].(*Assign); !ok {
		t.Fatalf("expected Assign, got %T", file.Body[3])
	}
}

func TestParseElseIf(t *testing.T) {
	file := mustParse(t, "if (a) { x } else if (b) { y } else { z }")
	outer := file.Body[0].(*If)
	if len(outer.Else) != 1 {
		t.Fatalf("expected chained else")
	}
	inner, ok := outer.Else[0].(*If)
	if !ok || len(inner.Else) != 1 {
		t.Fatalf("expected nested if with else, got %T", outer.Else[0])
	}
}

func TestParseRecoversFromErrors(t *testing.T) {
	src := "var x = 1\nfoo(1 2)\nvar y = )\nvar z = 3\n"
	file, errs := Parse(src, "bad.sour")
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), ErrorList(errs))
	}
	if errs[0].Start.Line != 2 || errs[1].Start.Line != 3 {
		t.Fatalf("errors reported on lines %d and %d", errs[0].Start.Line, errs[1].Start.Line)
	}
	last, ok := file.Body[len(file.Body)-1].(*VarDecl)
	if !ok || last.Name.Name != "z" {
		t.Fatalf("parser did not recover to the final declaration, got %T", file.Body[len(file.Body)-1])
	}
	for _, e := range errs {
		if e.Incomplete {
			t.Fatalf("error %v should not be marked incomplete", e)
		}
	}
}

func TestParseNeverLoopsOnStrayTokens(t *testing.T) {
	for _, src := range []string{")", "}}}", "]", ", ;", "@@", "func", "class {", "import", "new"} {
		file, errs := Parse(src, "")
		if file == nil {
			t.Fatalf("%q: nil file", src)
		}
		if len(errs) == 0 {
			t.Fatalf("%q: expected diagnostics", src)
		}
	}
}

func TestParseIncompleteInput(t *testing.T) {
	cases := []string{
		"func f() {",
		"foo(1, ",
		"var s = \"abc",
		"if (x",
	}
	for _, src := range cases {
		_, errs := Parse(src, "")
		if !AnyIncomplete(errs) {
			t.Errorf("%q: expected incomplete diagnostic, got %v", src, ErrorList(errs))
		}
	}
	if _, errs := Parse("foo(1))", ""); AnyIncomplete(errs) {
		t.Fatalf("extra closing paren is not incomplete input")
	}
}

func TestParseLexErrors(t *testing.T) {
	_, errs := Parse("var c = 'ab'", "")
	if len(errs) != 1 || errs[0].Kind != LexError {
		t.Fatalf("expected a single lexical error, got %v", ErrorList(errs))
	}
}

func TestParseErrorSnippet(t *testing.T) {
	_, errs := Parse("var x = 1\nvar = 2\n", "main.sour")
	if len(errs) == 0 {
		t.Fatalf("expected errors")
	}
	snippet := errs[0].Snippet()
	if !strings.HasPrefix(snippet, "main.sour:2:5: Expected ident") {
		t.Fatalf("unexpected snippet header:\n%s", snippet)
	}
	if !strings.Contains(snippet, "   2 | var = 2\n     |     ^\n") {
		t.Fatalf("unexpected snippet body:\n%s", snippet)
	}
}

func TestParseDefinitions(t *testing.T) {
	src := `
// Writes to stdout.
func print(s: string)
var true: bool
class string: type {
	var len: byte
	func _add(other: string): string
	func _get(i: byte): char
}
class Map<K, V> {
	func _get(key: K): V
	func _set(key: K, value: V)
}
`
	file, errs := ParseDefinitions(src, "builtin.sour")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", ErrorList(errs))
	}
	if len(file.Body) != 4 {
		t.Fatalf("expected 4 definitions, got %d", len(file.Body))
	}
	fn := file.Body[0].(*FuncDef)
	if fn.Doc != "Writes to stdout." || fn.Ret != nil {
		t.Fatalf("unexpected func def %+v", fn)
	}
	str := file.Body[2].(*ClassDef)
	if !str.IsType || len(str.Props) != 1 || len(str.Methods) != 2 {
		t.Fatalf("unexpected string class %+v", str)
	}
	m := file.Body[3].(*ClassDef)
	if m.IsType || len(m.Generic) != 2 {
		t.Fatalf("unexpected Map class %+v", m)
	}
}

func TestParseDefinitionsRejectsBodies(t *testing.T) {
	_, errs := ParseDefinitions("func f() { x }\nvar y: byte = 1\n", "")
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", ErrorList(errs))
	}
}

func TestParseLegacy(t *testing.T) {
	file, errs := ParseLegacy(`print "hi"; print 42 print x`, "")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", ErrorList(errs))
	}
	if len(file.Body) != 3 {
		t.Fatalf("expected 3 prints, got %d", len(file.Body))
	}
	for _, n := range file.Body {
		if n.Kind() != KindPrint {
			t.Fatalf("expected print, got %s", n.Kind())
		}
	}
	if _, errs := ParseLegacy("echo 1", ""); len(errs) == 0 {
		t.Fatalf("expected error for unknown statement")
	}
}

func TestParseKeepsAllTokens(t *testing.T) {
	src := "var x = 1 // one\n"
	file := mustParse(t, src)
	var b strings.Builder
	for _, tok := range file.Tokens {
		b.WriteString(src[tok.Start.Index:tok.End.Index])
	}
	if b.String() != src {
		t.Fatalf("tokens do not reproduce the source: %q", b.String())
	}
}

func TestInspectVisitsEveryIdent(t *testing.T) {
	file := mustParse(t, "class P<T> { var v: T\nfunc get(): T { return v } }\nfunc f(a: byte): byte { return a + 1 }\nvar x: byte\n")
	var names []string
	for _, n := range file.Body {
		Inspect(n, func(n Node) bool {
			if id, ok := n.(*Ident); ok {
				names = append(names, id.Name)
			}
			return true
		})
	}
	want := "P T v T get T v f a byte byte a x byte"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseReader(t *testing.T) {
	file, err := ParseReader(strings.NewReader("var x = 1\nx++\n"), "r.sour")
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(file.Body) != 2 || file.Path != "r.sour" {
		t.Fatalf("unexpected file %+v", file)
	}

	_, err = ParseString("var = 1", "s.sour")
	if err == nil {
		t.Fatal("expected an error for a missing name")
	}
	if !strings.HasPrefix(err.Error(), "s.sour:1:5:") {
		t.Fatalf("unexpected error %q", err)
	}
	if IsIncomplete(err) {
		t.Fatal("a missing name is not incomplete input")
	}

	_, err = ParseString("func f() {", "s.sour")
	if !IsIncomplete(err) {
		t.Fatalf("expected incomplete input, got %v", err)
	}
}
