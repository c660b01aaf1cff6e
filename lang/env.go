package lang

import "sort"

// Env implements a lexical environment chain. Functions are bound by their
// overload alias, classes by name.
type Env struct {
	parent  *Env
	values  map[string]Value
	funcs   map[string]Callable
	classes map[string]*Class
}

// NewEnv creates an environment with optional parent.
func NewEnv(parent *Env) *Env {
	return &Env{
		parent:  parent,
		values:  make(map[string]Value),
		funcs:   make(map[string]Callable),
		classes: make(map[string]*Class),
	}
}

// Define binds name to value in current frame.
func (e *Env) Define(name string, val Value) {
	e.values[name] = val
}

// Set updates an existing binding, searching parents if needed.
func (e *Env) Set(name string, val Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			env.values[name] = val
			return nil
		}
	}
	return referenceErrorf("'%s' is not defined", name)
}

// Get retrieves a binding, searching parents if necessary.
func (e *Env) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if val, ok := env.values[name]; ok {
			return val, nil
		}
	}
	return Value{}, referenceErrorf("'%s' is not defined", name)
}

// Lookup returns the binding in this frame only.
func (e *Env) Lookup(name string) (Value, bool) {
	val, ok := e.values[name]
	return val, ok
}

// DefineFunc binds a callable under its alias.
func (e *Env) DefineFunc(alias string, fn Callable) {
	e.funcs[alias] = fn
}

// Func finds a callable by alias.
func (e *Env) Func(alias string) (Callable, bool) {
	for env := e; env != nil; env = env.parent {
		if fn, ok := env.funcs[alias]; ok {
			return fn, true
		}
	}
	return nil, false
}

// DefineClass binds a class by name.
func (e *Env) DefineClass(c *Class) {
	e.classes[c.Name] = c
}

// Class finds a class by name.
func (e *Env) Class(name string) (*Class, bool) {
	for env := e; env != nil; env = env.parent {
		if c, ok := env.classes[name]; ok {
			return c, true
		}
	}
	return nil, false
}

// Parent returns the parent environment.
func (e *Env) Parent() *Env {
	return e.parent
}

// Merge copies every binding of other's own frame into e.
func (e *Env) Merge(other *Env) {
	if other == nil {
		return
	}
	for k, v := range other.values {
		e.values[k] = v
	}
	for k, fn := range other.funcs {
		e.funcs[k] = fn
	}
	for k, c := range other.classes {
		e.classes[k] = c
	}
}

// Names lists the variable names bound in this frame.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for k := range e.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Aliases lists the function aliases bound in this frame.
func (e *Env) Aliases() []string {
	names := make([]string, 0, len(e.funcs))
	for k := range e.funcs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
