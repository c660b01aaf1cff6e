package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestEnvParentLookupAndErrors(t *testing.T) {
	parent := NewEnv(nil)
	parent.Define("x", ByteValue(1))
	child := NewEnv(parent)

	if err := child.Set("x", ByteValue(2)); err != nil {
		t.Fatalf("Set should update parent binding: %v", err)
	}
	val, err := parent.Get("x")
	if err != nil || val.Byte() != 2 {
		t.Fatalf("expected parent value updated to 2, got %v err=%v", val, err)
	}
	if _, ok := child.Lookup("x"); ok {
		t.Fatalf("Lookup must not search parents")
	}

	err = child.Set("missing", Null)
	var rerr *RuntimeError
	if !errors.As(err, &rerr) || rerr.Kind != ReferenceError {
		t.Fatalf("expected ReferenceError updating missing binding, got %v", err)
	}
	if _, err := child.Get("missing"); err == nil || !strings.Contains(err.Error(), "'missing' is not defined") {
		t.Fatalf("expected error fetching missing binding, got %v", err)
	}
	if child.Parent() != parent {
		t.Fatalf("expected Parent to expose enclosing environment")
	}
}

func TestEnvFuncsClassesAndMerge(t *testing.T) {
	global := NewEnv(nil)
	fn := &Native{Name: "f"}
	global.DefineFunc("f__byte", fn)
	global.DefineClass(NewClass("Point"))
	local := NewEnv(global)

	if got, ok := local.Func("f__byte"); !ok || got != fn {
		t.Fatalf("expected function through parent, got %v", got)
	}
	if _, ok := local.Func("f__char"); ok {
		t.Fatalf("overloads must be looked up by alias")
	}
	if c, ok := local.Class("Point"); !ok || c.Name != "Point" {
		t.Fatalf("expected class through parent")
	}

	exports := NewEnv(nil)
	exports.Define("b", ByteValue(1))
	exports.Define("a", ByteValue(2))
	exports.DefineFunc("g__", fn)
	local.Merge(exports)
	local.Merge(nil)
	if got := strings.Join(local.Names(), ","); got != "a,b" {
		t.Fatalf("expected sorted merged names, got %q", got)
	}
	if got := strings.Join(local.Aliases(), ","); got != "g__" {
		t.Fatalf("expected merged alias, got %q", got)
	}
}
