package sexpr

import (
	"testing"

	"github.com/sergev/sour/parser"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "RightAssociativeOperators",
			input: "1 + 2 * x",
			want:  "(+ 1 (* 2 x))\n",
		},
		{
			name:  "VariableWithGenericType",
			input: `var m: Map<string, byte> = new Map<string, byte>()`,
			want:  "(var m (Map string byte) (new (Map string byte)))\n",
		},
		{
			name:  "Function",
			input: "func add(a: byte, b: byte): byte { return a + b }",
			want:  "(func add ((a byte) (b byte)) byte (body (return (+ a b))))\n",
		},
		{
			name:  "PostfixChain",
			input: `s.items[0] = 'c'; i++`,
			want:  "(= ([] (. s items) 0) 'c')\n(++ i)\n",
		},
		{
			name:  "Control",
			input: `while (x < 3) { if (x == 1) { break } else { print("x") } }`,
			want:  "(while (< x 3) (body (if (== x 1) (then (break)) (else (call print \"x\")))))\n",
		},
		{
			name:  "ClassAndImport",
			input: "import * from \"lib\"\nexport class P<T> { var v: T\n func get(): T { return v } }",
			want:  "(import \"lib\")\n(export (class P <T> (var v T) (func get () T (body (return v)))))\n",
		},
		{
			name:  "UntypedVariable",
			input: "var x",
			want:  "(var x _)\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file, errs := parser.Parse(tc.input, "")
			if len(errs) != 0 {
				t.Fatalf("parse errors: %v", parser.ErrorList(errs))
			}
			if got := FormatFile(file); got != tc.want {
				t.Fatalf("FormatFile:\n got %q\nwant %q", got, tc.want)
			}
		})
	}
}

func TestFormatBadNode(t *testing.T) {
	file, _ := parser.Parse("var x = @", "")
	if got := FormatFile(file); got != "(var x _ (bad \"@\"))\n" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestFormatDefinitions(t *testing.T) {
	file, errs := parser.ParseDefinitions("class string: type { var len: byte }\nfunc print(s: string)", "")
	if len(errs) != 0 {
		t.Fatalf("parse errors: %v", parser.ErrorList(errs))
	}
	want := "(class-def string :type (var-def len byte))\n(func-def print ((s string)) _)\n"
	if got := FormatFile(file); got != want {
		t.Fatalf("FormatFile:\n got %q\nwant %q", got, want)
	}
}
