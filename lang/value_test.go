package lang

import "testing"

func TestByteWraps(t *testing.T) {
	tests := []struct {
		in   int64
		want uint8
	}{
		{0, 0},
		{255, 255},
		{256, 0},
		{300, 44},
		{-1, 255},
		{-256, 0},
	}
	for _, tt := range tests {
		if got := ByteValue(tt.in).Byte(); got != tt.want {
			t.Errorf("ByteValue(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValueStrings(t *testing.T) {
	m := NewMap()
	m.Set(StringValue("a"), ByteValue(1))
	m.Set(CharValue('b'), BoolValue(true))
	obj := ObjectValue(&Object{Class: NewClass("Point"), Props: NewEnv(nil)})

	tests := []struct {
		v       Value
		str     string
		inspect string
		typ     string
	}{
		{Null, "null", "null", "null"},
		{ByteValue(42), "42", "42", "byte"},
		{CharValue('x'), "x", "'x'", "char"},
		{BoolValue(false), "false", "false", "bool"},
		{StringValue("hi\n"), "hi\n", `"hi\n"`, "string"},
		{MapValue(m), `{"a": 1, 'b': true}`, `{"a": 1, 'b': true}`, "Map"},
		{obj, "<Point>", "<Point>", "Point"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
		if got := tt.v.Inspect(); got != tt.inspect {
			t.Errorf("Inspect() = %q, want %q", got, tt.inspect)
		}
		if got := tt.v.TypeName(); got != tt.typ {
			t.Errorf("TypeName() = %q, want %q", got, tt.typ)
		}
	}
}

func TestEqual(t *testing.T) {
	a := NewMap()
	if !Equal(ByteValue(3), ByteValue(259)) {
		t.Fatalf("wrapped bytes should be equal")
	}
	if Equal(ByteValue(65), CharValue('A')) {
		t.Fatalf("values of different types are never equal")
	}
	if !Equal(StringValue("x"), StringValue("x")) {
		t.Fatalf("strings compare by content")
	}
	if !Equal(MapValue(a), MapValue(a)) || Equal(MapValue(a), MapValue(NewMap())) {
		t.Fatalf("maps compare by identity")
	}
	if !Equal(Null, Null) {
		t.Fatalf("null equals null")
	}
}

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	for _, k := range []string{"c", "a", "b"} {
		m.Set(StringValue(k), ByteValue(int64(len(k))))
	}
	m.Set(StringValue("a"), ByteValue(9))
	m.Delete(StringValue("c"))
	m.Delete(StringValue("missing"))

	var keys []string
	m.Each(func(k, v Value) bool {
		keys = append(keys, k.Str())
		return true
	})
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected key order %v", keys)
	}
	if v, ok := m.Get(StringValue("a")); !ok || v.Byte() != 9 {
		t.Fatalf("expected overwritten value 9, got %v", v)
	}
	if m.Has(StringValue("c")) || m.Len() != 2 {
		t.Fatalf("expected deleted key to be gone")
	}
	if m.Has(CharValue('a')) {
		t.Fatalf("keys of different types must not collide")
	}
}
