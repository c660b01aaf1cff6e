// Package check validates Sour programs: it resolves names and types,
// picks function overloads and records its findings in an Info side table.
package check

import (
	"strings"

	"github.com/sergev/sour/parser"
)

// Type describes the static type of an expression.
type Type interface {
	String() string
	isType()
}

// SimpleType is a named type without a class, used for `void` and the
// `error` placeholder that stops cascading diagnostics.
type SimpleType struct {
	Name string
}

// InstanceType is an instance of a class, optionally parameterised.
type InstanceType struct {
	Class   *Class
	Generic []Type
}

// ClassType is the type of a class name used as a value.
type ClassType struct {
	Class *Class
}

// ParamType is a generic type parameter inside a generic class.
type ParamType struct {
	Name string
}

var (
	Void    = &SimpleType{Name: "void"}
	Invalid = &SimpleType{Name: "error"}
)

func (*SimpleType) isType()   {}
func (*InstanceType) isType() {}
func (*ClassType) isType()    {}
func (*ParamType) isType()    {}

func (t *SimpleType) String() string { return t.Name }
func (t *ClassType) String() string  { return "class " + t.Class.Name }
func (t *ParamType) String() string  { return t.Name }

func (t *InstanceType) String() string {
	if len(t.Generic) == 0 {
		return t.Class.Name
	}
	args := make([]string, len(t.Generic))
	for i, g := range t.Generic {
		args[i] = g.String()
	}
	return t.Class.Name + "<" + strings.Join(args, ", ") + ">"
}

// Equal reports structural equality. Instance types compare class identity
// and generic arguments element-wise.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case *SimpleType:
		b, ok := b.(*SimpleType)
		return ok && a.Name == b.Name
	case *ParamType:
		b, ok := b.(*ParamType)
		return ok && a.Name == b.Name
	case *ClassType:
		b, ok := b.(*ClassType)
		return ok && a.Class == b.Class
	case *InstanceType:
		b, ok := b.(*InstanceType)
		if !ok || a.Class != b.Class || len(a.Generic) != len(b.Generic) {
			return false
		}
		for i := range a.Generic {
			if !Equal(a.Generic[i], b.Generic[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsInvalid reports whether t is the error placeholder.
func IsInvalid(t Type) bool {
	return t == nil || t == Type(Invalid)
}

// InstanceOf returns the class of an instance type, or nil.
func InstanceOf(t Type) *Class {
	if it, ok := t.(*InstanceType); ok {
		return it.Class
	}
	return nil
}

// aliasName is the component a type contributes to an overload alias.
// Generic arguments follow the class name: `Map<string, byte>` becomes
// `Map_string_byte`.
func aliasName(t Type) string {
	switch t := t.(type) {
	case *InstanceType:
		if len(t.Generic) == 0 {
			return t.Class.Name
		}
		parts := make([]string, 0, len(t.Generic)+1)
		parts = append(parts, t.Class.Name)
		for _, g := range t.Generic {
			parts = append(parts, aliasName(g))
		}
		return strings.Join(parts, "_")
	case nil:
		return "void"
	default:
		return t.String()
	}
}

// Alias builds the canonical overload key `name__T1__T2`. A function without
// parameters gets the alias `name__`.
func Alias(name string, params []Type) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("__")
	for i, p := range params {
		if i > 0 {
			b.WriteString("__")
		}
		b.WriteString(aliasName(p))
	}
	return b.String()
}

// substitution maps generic parameter names to concrete types.
type substitution map[string]Type

func newSubstitution(class *Class, generic []Type) substitution {
	if class == nil || len(class.Generic) == 0 {
		return nil
	}
	s := make(substitution, len(class.Generic))
	for i, name := range class.Generic {
		if i < len(generic) {
			s[name] = generic[i]
		}
	}
	return s
}

func (s substitution) apply(t Type) Type {
	if len(s) == 0 {
		return t
	}
	switch t := t.(type) {
	case *ParamType:
		if r, ok := s[t.Name]; ok {
			return r
		}
	case *InstanceType:
		if len(t.Generic) == 0 {
			return t
		}
		args := make([]Type, len(t.Generic))
		for i, g := range t.Generic {
			args[i] = s.apply(g)
		}
		return &InstanceType{Class: t.Class, Generic: args}
	}
	return t
}

// Var is a variable, property or parameter.
type Var struct {
	Name    string
	Type    Type
	Node    parser.Node
	Doc     string
	Builtin bool
	Used    bool
}

// Func is one overload of a function or method.
type Func struct {
	Name    string
	Alias   string
	Params  []*Var
	Ret     Type
	Node    parser.Node // *parser.FuncDecl or *parser.FuncDef
	Doc     string
	Owner   *Class // nil for free functions
	Builtin bool
	Used    bool
}

// ParamTypes returns the declared parameter types in order.
func (f *Func) ParamTypes() []Type {
	types := make([]Type, len(f.Params))
	for i, p := range f.Params {
		types[i] = p.Type
	}
	return types
}

// Signature renders the overload as `name(T1, T2)`.
func (f *Func) Signature() string {
	return signature(f.Name, f.ParamTypes())
}

func signature(name string, types []Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// Class is a builtin or user class. Properties keep declaration order and
// methods are overloaded by name.
type Class struct {
	Name    string
	Generic []string
	IsType  bool
	Builtin bool
	Used    bool
	Node    parser.Node
	Doc     string

	Props   []*Var
	props   map[string]*Var
	methods map[string][]*Func
	order   []string
	scope   *Scope
}

func newClass(name string, generic []string) *Class {
	return &Class{
		Name:    name,
		Generic: generic,
		props:   make(map[string]*Var),
		methods: make(map[string][]*Func),
	}
}

// Prop looks up a property by name.
func (c *Class) Prop(name string) *Var {
	return c.props[name]
}

func (c *Class) defProp(v *Var) {
	if _, ok := c.props[v.Name]; !ok {
		c.Props = append(c.Props, v)
	} else {
		for i, p := range c.Props {
			if p.Name == v.Name {
				c.Props[i] = v
			}
		}
	}
	c.props[v.Name] = v
}

// Methods returns the overloads of a method in declaration order.
func (c *Class) Methods(name string) []*Func {
	return c.methods[name]
}

// Method finds a method by alias.
func (c *Class) Method(alias string) *Func {
	for _, name := range c.order {
		for _, fn := range c.methods[name] {
			if fn.Alias == alias {
				return fn
			}
		}
	}
	return nil
}

// MethodNames lists method names in declaration order.
func (c *Class) MethodNames() []string {
	return c.order
}

// Constructor returns the `init` method, if any.
func (c *Class) Constructor() *Func {
	if ms := c.methods["init"]; len(ms) > 0 {
		return ms[0]
	}
	return nil
}

func (c *Class) defMethod(fn *Func) bool {
	for _, other := range c.methods[fn.Name] {
		if sameParams(other.ParamTypes(), fn.ParamTypes()) {
			return false
		}
	}
	if _, ok := c.methods[fn.Name]; !ok {
		c.order = append(c.order, fn.Name)
	}
	c.methods[fn.Name] = append(c.methods[fn.Name], fn)
	return true
}

func sameParams(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Symbol is anything a name can resolve to: *Var, *Func or *Class.
type Symbol interface {
	SymbolName() string
}

func (v *Var) SymbolName() string   { return v.Name }
func (f *Func) SymbolName() string  { return f.Name }
func (c *Class) SymbolName() string { return c.Name }
