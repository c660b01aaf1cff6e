package check

import (
	"fmt"
	"sort"
)

// ScopeKind tells what introduced a scope.
type ScopeKind int

const (
	ScopeBuiltin ScopeKind = iota
	ScopeFile
	ScopeClass
	ScopeFunc
	ScopeBlock
	ScopeLoop
	ScopeExports
)

// Scope is a compile-time symbol table. Lookups that miss walk the parent
// chain.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	Func   *Func  // set on function scopes
	Owner  *Class // set on class scopes

	vars    map[string]*Var
	funcs   map[string][]*Func
	classes map[string]*Class
}

// NewScope returns an empty scope below parent.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{
		Kind:    kind,
		Parent:  parent,
		vars:    make(map[string]*Var),
		funcs:   make(map[string][]*Func),
		classes: make(map[string]*Class),
	}
}

// DefVar binds a variable, replacing any binding of the same name in this scope.
func (s *Scope) DefVar(v *Var) {
	s.vars[v.Name] = v
}

// Var resolves a variable through the scope chain.
func (s *Scope) Var(name string) *Var {
	for sc := s; sc != nil; sc = sc.Parent {
		if v, ok := sc.vars[name]; ok {
			return v
		}
	}
	return nil
}

// HasVar reports whether a variable is visible.
func (s *Scope) HasVar(name string) bool {
	return s.Var(name) != nil
}

// DefFunc adds an overload. It fails when this scope already holds an
// overload with the same parameter types.
func (s *Scope) DefFunc(fn *Func) error {
	for _, other := range s.funcs[fn.Name] {
		if sameParams(other.ParamTypes(), fn.ParamTypes()) {
			return fmt.Errorf("'%s' is already defined", fn.Signature())
		}
	}
	s.funcs[fn.Name] = append(s.funcs[fn.Name], fn)
	return nil
}

// Funcs returns every visible overload of name: own overloads first, then
// inherited ones.
func (s *Scope) Funcs(name string) []*Func {
	var out []*Func
	for sc := s; sc != nil; sc = sc.Parent {
		out = append(out, sc.funcs[name]...)
	}
	return out
}

// HasFunc reports whether any overload of name is visible.
func (s *Scope) HasFunc(name string) bool {
	for sc := s; sc != nil; sc = sc.Parent {
		if len(sc.funcs[name]) > 0 {
			return true
		}
	}
	return false
}

// DefClass binds a class. It fails when this scope already defines one with
// the same name.
func (s *Scope) DefClass(c *Class) error {
	if _, ok := s.classes[c.Name]; ok {
		return fmt.Errorf("class '%s' is already defined", c.Name)
	}
	s.classes[c.Name] = c
	return nil
}

// Class resolves a class through the scope chain.
func (s *Scope) Class(name string) *Class {
	for sc := s; sc != nil; sc = sc.Parent {
		if c, ok := sc.classes[name]; ok {
			return c
		}
	}
	return nil
}

// HasClass reports whether a class is visible.
func (s *Scope) HasClass(name string) bool {
	return s.Class(name) != nil
}

// Function returns the innermost enclosing function.
func (s *Scope) Function() *Func {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.Kind == ScopeFunc {
			return sc.Func
		}
	}
	return nil
}

// InLoop reports whether a `break` here would exit a loop.
func (s *Scope) InLoop() bool {
	for sc := s; sc != nil; sc = sc.Parent {
		switch sc.Kind {
		case ScopeLoop:
			return true
		case ScopeFunc, ScopeClass, ScopeFile:
			return false
		}
	}
	return false
}

// Vars lists the variables defined directly in this scope, sorted by name.
func (s *Scope) Vars() []*Var {
	out := make([]*Var, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllFuncs lists every overload defined directly in this scope, sorted by alias.
func (s *Scope) AllFuncs() []*Func {
	var out []*Func
	for _, fns := range s.funcs {
		out = append(out, fns...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

// Classes lists the classes defined directly in this scope, sorted by name.
func (s *Scope) Classes() []*Class {
	out := make([]*Class, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// scopeState is a copy of the bindings defined directly in a scope.
type scopeState struct {
	vars    map[string]*Var
	funcs   map[string][]*Func
	classes map[string]*Class
}

func (s *Scope) save() scopeState {
	st := scopeState{
		vars:    make(map[string]*Var, len(s.vars)),
		funcs:   make(map[string][]*Func, len(s.funcs)),
		classes: make(map[string]*Class, len(s.classes)),
	}
	for k, v := range s.vars {
		st.vars[k] = v
	}
	for k, fns := range s.funcs {
		st.funcs[k] = append([]*Func(nil), fns...)
	}
	for k, c := range s.classes {
		st.classes[k] = c
	}
	return st
}

func (s *Scope) restore(st scopeState) {
	s.vars = st.vars
	s.funcs = st.funcs
	s.classes = st.classes
}
