package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueType enumerates the different runtime value categories.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeByte
	TypeChar
	TypeBool
	TypeString
	TypeMap
	TypeObject
	typeSuspend
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeByte:
		return "byte"
	case TypeChar:
		return "char"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeMap:
		return "Map"
	case TypeObject:
		return "object"
	default:
		return "suspend"
	}
}

// Value represents any runtime object in the interpreter.
type Value struct {
	Type    ValueType
	payload interface{}
}

// Null is the value of a declared but unassigned variable.
var Null = Value{Type: TypeNull}

// ByteValue constructs a byte, wrapping modulo 256. Negative inputs wrap
// the same way, so -1 becomes 255.
func ByteValue(n int64) Value {
	return Value{Type: TypeByte, payload: uint8(n)}
}

// CharValue constructs a char.
func CharValue(r rune) Value {
	return Value{Type: TypeChar, payload: r}
}

// BoolValue returns the boolean Value equivalent.
func BoolValue(b bool) Value {
	return Value{Type: TypeBool, payload: b}
}

// StringValue constructs a string Value.
func StringValue(s string) Value {
	return Value{Type: TypeString, payload: s}
}

// MapValue wraps map storage.
func MapValue(m *MapData) Value {
	return Value{Type: TypeMap, payload: m}
}

// ObjectValue wraps an instance of a user class.
func ObjectValue(o *Object) Value {
	return Value{Type: TypeObject, payload: o}
}

// Byte returns the payload of a byte value.
func (v Value) Byte() uint8 {
	if b, ok := v.payload.(uint8); ok {
		return b
	}
	return 0
}

// Char returns the payload of a char value.
func (v Value) Char() rune {
	if r, ok := v.payload.(rune); ok {
		return r
	}
	return 0
}

// Bool returns the payload of a bool value.
func (v Value) Bool() bool {
	if b, ok := v.payload.(bool); ok {
		return b
	}
	return false
}

// Str returns the payload of a string value.
func (v Value) Str() string {
	if s, ok := v.payload.(string); ok {
		return s
	}
	return ""
}

// Map returns the storage of a Map value.
func (v Value) Map() *MapData {
	if m, ok := v.payload.(*MapData); ok {
		return m
	}
	return nil
}

// Object returns the instance behind an object value.
func (v Value) Object() *Object {
	if o, ok := v.payload.(*Object); ok {
		return o
	}
	return nil
}

func (v Value) suspension() *suspension {
	if s, ok := v.payload.(*suspension); ok {
		return s
	}
	return nil
}

// TypeName is the Sour class name of the value.
func (v Value) TypeName() string {
	if o := v.Object(); o != nil {
		return o.Class.Name
	}
	return v.Type.String()
}

func (v Value) String() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeByte:
		return strconv.Itoa(int(v.Byte()))
	case TypeChar:
		return string(v.Char())
	case TypeBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case TypeString:
		return v.Str()
	case TypeMap:
		var b strings.Builder
		b.WriteString("{")
		first := true
		v.Map().Each(func(k, val Value) bool {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%s: %s", k.Inspect(), val.Inspect())
			return true
		})
		b.WriteString("}")
		return b.String()
	case TypeObject:
		return "<" + v.Object().Class.Name + ">"
	default:
		return "<suspended>"
	}
}

// Inspect renders the value as it would be written in source.
func (v Value) Inspect() string {
	switch v.Type {
	case TypeString:
		return strconv.Quote(v.Str())
	case TypeChar:
		return strconv.QuoteRune(v.Char())
	default:
		return v.String()
	}
}

// Equal compares two values by content. Objects and maps compare by identity.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeNull:
		return true
	case TypeMap:
		return a.Map() == b.Map()
	case TypeObject:
		return a.Object() == b.Object()
	default:
		return a.payload == b.payload
	}
}

type mapKey struct {
	typ ValueType
	key interface{}
}

func keyOf(v Value) mapKey {
	return mapKey{typ: v.Type, key: v.payload}
}

// MapData is an insertion-ordered associative array.
type MapData struct {
	keys   []Value
	values map[mapKey]Value
}

// NewMap returns empty map storage.
func NewMap() *MapData {
	return &MapData{values: make(map[mapKey]Value)}
}

// Set stores a value, keeping the original insertion position of the key.
func (m *MapData) Set(k, v Value) {
	key := keyOf(k)
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[key] = v
}

// Get returns the value stored for k.
func (m *MapData) Get(k Value) (Value, bool) {
	v, ok := m.values[keyOf(k)]
	return v, ok
}

// Has reports whether k is present.
func (m *MapData) Has(k Value) bool {
	_, ok := m.values[keyOf(k)]
	return ok
}

// Delete removes k.
func (m *MapData) Delete(k Value) {
	key := keyOf(k)
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, existing := range m.keys {
		if keyOf(existing) == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *MapData) Len() int {
	return len(m.keys)
}

// Each visits entries in insertion order until fn returns false.
func (m *MapData) Each(fn func(k, v Value) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[keyOf(k)]) {
			return
		}
	}
}
