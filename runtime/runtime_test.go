package runtime

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/lang"
	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/vfs"
)

func newInterpreter(t *testing.T, opts ...Option) (*Interpreter, *check.Registry) {
	t.Helper()
	reg, err := NewRegistry()
	require.NoError(t, err)
	in, err := New(reg, opts...)
	require.NoError(t, err)
	return in, reg
}

func compile(t *testing.T, reg *check.Registry, fs vfs.MapFS, path string) *check.Result {
	t.Helper()
	res := check.Validate(fs[path], fs.Open(path), reg)
	require.Empty(t, res.Errors, "validation failed: %v", res.Err())
	return res
}

type output struct {
	stdout string
	stderr string
	err    error
}

func runProgram(t *testing.T, src, stdin string) output {
	t.Helper()
	return runFS(t, vfs.MapFS{"main.sour": src}, stdin)
}

func runFS(t *testing.T, fs vfs.MapFS, stdin string) output {
	t.Helper()
	in, reg := newInterpreter(t)
	res := compile(t, reg, fs, "main.sour")
	var out, errOut bytes.Buffer
	err := in.Run(context.Background(), res, Stdio{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	return output{stdout: out.String(), stderr: errOut.String(), err: err}
}

func TestBuiltinLibraryIsComplete(t *testing.T) {
	in, reg := newInterpreter(t)
	for _, fn := range reg.Funcs() {
		key := fn.Alias
		if fn.Owner != nil {
			key = fn.Owner.Name + "." + fn.Alias
		}
		assert.Contains(t, in.natives, key)
	}
}

func TestNewRequiresNatives(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, reg.Load("// Rings the bell.\nfunc beep(times: byte): byte\n", "extra.sour"))

	_, err = New(reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beep__byte")

	in, err := New(reg, WithNatives(map[string]lang.NativeFunc{
		"beep__byte": func(_ *lang.Evaluator, _ lang.Value, args []lang.Value) (lang.Value, error) {
			return lang.ByteValue(int64(args[0].Byte()) * 2), nil
		},
	}))
	require.NoError(t, err)
	res := compile(t, reg, vfs.MapFS{"main.sour": "print(beep(21))"}, "main.sour")
	var out bytes.Buffer
	require.NoError(t, in.Run(context.Background(), res, Stdio{Out: &out}))
	assert.Equal(t, "42\n", out.String())
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		stdin string
		want  string
	}{
		{"Hello", `print("hello, world")`, "", "hello, world\n"},
		{"PrintOverloads", "print('x')\nprint(200 + 100)", "", "x\n44\n"},
		{"Conversions", "print(65.to_char().to_string() + to_string(7))\nprint(to_byte('B'))", "", "A7\n66\n"},
		{"StringOps", `var s = "sour" + '!'
print(s.len.to_string() + " " + s.slice(1, 3))
print(s[0])`, "", "5 ou\ns\n"},
		{"Bool", "var t = (1 < 2).and(3 > 2)\nprint(t.to_string() + \" \" + t.not().to_string())", "", "true false\n"},
		{"Map", `var m = new Map<string, byte>()
m["a"] = 1
m.set("b", 2)
m["a"]++
m.delete("b")
print(m["a"])
print(m.size())
print(m.has("b").to_string())`, "", "2\n1\nfalse\n"},
		{"Echo", `var c = _stdin()
while ((c == '\0').not()) {
	_stdout(c)
	c = _stdin()
}`, "héllo", "héllo"},
		{"Classes", `class Greeter {
	var name: string = "nobody"
	func init(n: string) { name = n }
	func greet() { print("hi " + name) }
}
new Greeter("ann").greet()`, "", "hi ann\n"},
		{"GenericOverloads", `func f(m: Map<string, byte>): string { return "byte" }
func f(m: Map<string, char>): string { return "char" }
var a = new Map<string, byte>()
var b = new Map<string, char>()
print(f(a))
print(f(b))`, "", "byte\nchar\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runProgram(t, tt.src, tt.stdin)
			require.NoError(t, out.err)
			assert.Equal(t, tt.want, out.stdout)
		})
	}
}

func TestStderr(t *testing.T) {
	out := runProgram(t, "_stderr('!')\n_stdout('.')", "")
	require.NoError(t, out.err)
	assert.Equal(t, "!", out.stderr)
	assert.Equal(t, ".", out.stdout)
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind lang.ErrorKind
		msg  string
	}{
		{"DivisionByZero", "var z = 0\nprint(1 / z)", lang.RangeError, "Division by zero"},
		{"IndexOutOfRange", `print("ab"[5])`, lang.RangeError, "Index 5 out of range for string of length 2"},
		{"MissingKey", "var m = new Map<byte, byte>()\nprint(m[3])", lang.RangeError, "Key 3 is not in the map"},
		{"BadSlice", `print("abc".slice(2, 1))`, lang.RangeError, "Slice [2:1] out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runProgram(t, "print(\"before\")\n"+tt.src, "")
			var rerr *lang.RuntimeError
			require.True(t, errors.As(out.err, &rerr), "got %v", out.err)
			assert.Equal(t, tt.kind, rerr.Kind)
			assert.Contains(t, rerr.Message, tt.msg)
			assert.NotEmpty(t, rerr.Stack)
			assert.Equal(t, "before\n", out.stdout)
		})
	}
}

func TestImports(t *testing.T) {
	fs := vfs.MapFS{
		"main.sour":      "import * from \"lib/util\"\nimport * from \"lib/greet\"\nprint(double(21))\ngreet()",
		"lib/util.sour":  "print(\"util loaded\")\nexport func double(x: byte): byte { return x * 2 }",
		"lib/greet.sour": "import * from \"util\"\nexport func greet() { print(\"twice \" + double(2).to_string()) }",
	}
	out := runFS(t, fs, "")
	require.NoError(t, out.err)
	assert.Equal(t, "util loaded\n42\ntwice 4\n", out.stdout)
}

func TestFailedImportIsAWarning(t *testing.T) {
	fs := vfs.MapFS{
		"main.sour":   "import * from \"broken\"\nprint(\"after\")",
		"broken.sour": "print(\"loading\")\nvar z = 0\nvar x = 1 / z\nexport var y = 1",
	}
	in, reg := newInterpreter(t)
	var warnings bytes.Buffer
	WithWarnings(&warnings)(in)
	res := compile(t, reg, fs, "main.sour")

	var out bytes.Buffer
	require.NoError(t, in.Run(context.Background(), res, Stdio{Out: &out}))
	assert.Equal(t, "loading\nafter\n", out.String())
	assert.Contains(t, warnings.String(), `warning: import "broken" failed: RangeError: Division by zero`)
	assert.Contains(t, warnings.String(), "at <main> (broken.sour:3:9)")
}

func TestHostModule(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NoError(t, reg.DefineModule("host", "func answer(): byte\n"))
	in, err := New(reg)
	require.NoError(t, err)

	exports := lang.NewEnv(nil)
	exports.DefineFunc("answer__", &lang.Native{Name: "answer", Fn: func(*lang.Evaluator, lang.Value, []lang.Value) (lang.Value, error) {
		return lang.ByteValue(42), nil
	}})
	in.AddModule("host", exports)

	res := check.Validate("import * from \"host\"\nprint(answer())", nil, reg)
	require.Empty(t, res.Errors)
	var out bytes.Buffer
	require.NoError(t, in.Run(context.Background(), res, Stdio{Out: &out}))
	assert.Equal(t, "42\n", out.String())

	in2, err := New(reg)
	require.NoError(t, err)
	err = in2.Run(context.Background(), res, Stdio{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host module 'host' is not registered")
}

func TestExportsAndPersistentScope(t *testing.T) {
	in, reg := newInterpreter(t)
	v := check.NewValidator(reg, nil)

	exec := func(src string) lang.Value {
		file, errs := parser.Parse(src, "")
		require.Empty(t, errs)
		require.Empty(t, v.Check(file))
		var got lang.Value
		var gotErr error
		in.Exec(file, v.Info(), lang.Continuation{
			Resolve: func(val lang.Value) { got = val },
			Reject:  func(err error) { gotErr = err },
		})
		require.NoError(t, gotErr)
		return got
	}
	exec("export var x = 40")
	exec("func add(a: byte): byte { return x + a }")
	assert.Equal(t, "42", exec("add(2)").String())

	val, ok := in.Exports().Lookup("x")
	require.True(t, ok)
	assert.Equal(t, byte(40), val.Byte())
	_, ok = in.Env().Lookup("x")
	assert.True(t, ok)
}

func TestInterpretRejectsInvalidPrograms(t *testing.T) {
	in, reg := newInterpreter(t)
	res := check.Validate("print(nope)", nil, reg)
	require.NotEmpty(t, res.Errors)

	var got error
	in.Interpret(res, lang.Continuation{Reject: func(err error) { got = err }})
	require.Error(t, got)
	assert.Contains(t, got.Error(), "'nope' is not defined")
}

func TestRunCancellation(t *testing.T) {
	in, reg := newInterpreter(t)
	res := compile(t, reg, vfs.MapFS{"main.sour": "print(\"waiting\")\n_stdin()"}, "main.sour")
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var out bytes.Buffer
	err := in.Run(ctx, res, Stdio{In: pr, Out: &out})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "waiting\n", out.String())
	assert.True(t, in.Stdout.Closed())
}
