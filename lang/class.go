package lang

import (
	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
)

// Callable is a function or method body: a *Native or a *Closure.
type Callable interface {
	FuncName() string
}

// NativeFunc implements a builtin. this is Null for free functions.
// To wait for input a native returns Suspend(...) as its value.
type NativeFunc func(ev *Evaluator, this Value, args []Value) (Value, error)

// Native is a builtin implemented in Go.
type Native struct {
	Name string
	Fn   NativeFunc
}

func (n *Native) FuncName() string { return n.Name }

// Module is the compiled form of one source file.
type Module struct {
	Path   string
	Source string
	Info   *check.Info
}

// Closure is a user function or method together with its defining scope.
type Closure struct {
	Decl   *parser.FuncDecl
	Func   *check.Func
	Env    *Env
	Module *Module
}

func (c *Closure) FuncName() string {
	if c.Func.Owner != nil {
		return c.Func.Owner.Name + "." + c.Func.Name
	}
	return c.Func.Name
}

// Class is a runtime class. Builtin classes carry native methods and
// property getters; user classes carry their declaration.
type Class struct {
	Name    string
	Methods map[string]Callable // by alias
	Getters map[string]func(Value) Value
	Decl    *parser.ClassDecl
	Env     *Env // scope the class was declared in
	Module  *Module

	// New constructs a builtin instance for `new`. Nil for value types.
	New func(args []Value) (Value, error)
}

// NewClass returns a class with no members.
func NewClass(name string) *Class {
	return &Class{
		Name:    name,
		Methods: make(map[string]Callable),
		Getters: make(map[string]func(Value) Value),
	}
}

// Method finds a method by alias.
func (c *Class) Method(alias string) (Callable, bool) {
	fn, ok := c.Methods[alias]
	return fn, ok
}

// Object is an instance of a user class. Properties live in an Env whose
// parent is the class's declaring scope, so method bodies see both.
type Object struct {
	Class *Class
	Props *Env
}

// Prop reads a property.
func (o *Object) Prop(name string) (Value, bool) {
	return o.Props.Lookup(name)
}

// SetProp writes a property.
func (o *Object) SetProp(name string, v Value) {
	o.Props.Define(name, v)
}
