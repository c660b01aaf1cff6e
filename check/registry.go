package check

import (
	"github.com/sergev/sour/parser"
)

// Registry is the builtin scope built from definition sources. It is
// read-only once loading finishes and may be shared by concurrent validators.
type Registry struct {
	Scope   *Scope
	Modules map[string]*Scope // host modules, importable by name
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Scope:   NewScope(ScopeBuiltin, nil),
		Modules: make(map[string]*Scope),
	}
}

// LoadRegistry builds a registry from one definitions source.
func LoadRegistry(src string) (*Registry, error) {
	r := NewRegistry()
	if err := r.Load(src, "builtin.sour"); err != nil {
		return nil, err
	}
	return r, nil
}

// Load adds the declarations of a definitions file. Classes are registered
// before any member so signatures may refer to classes declared later.
func (r *Registry) Load(src, path string) error {
	return r.load(r.Scope, src, path)
}

// DefineModule declares a host module from a definitions source. Programs
// import it by name; the host supplies its implementation at runtime.
func (r *Registry) DefineModule(name, src string) error {
	scope := NewScope(ScopeExports, r.Scope)
	if err := r.load(scope, src, name); err != nil {
		return err
	}
	r.Modules[name] = scope
	return nil
}

func (r *Registry) load(scope *Scope, src, path string) error {
	file, errs := parser.ParseDefinitions(src, path)
	if len(errs) > 0 {
		return parser.ErrorList(errs)
	}
	var fail parser.ErrorList
	report := func(n parser.Node, format string, args ...interface{}) {
		fail = append(fail, parser.NewError(parser.CompileError, n.Span(), path, src, format, args...))
	}

	type pending struct {
		def   *parser.ClassDef
		class *Class
	}
	var classes []pending
	for _, n := range file.Body {
		def, ok := n.(*parser.ClassDef)
		if !ok {
			continue
		}
		class := newClass(def.Name.Name, identNames(def.Generic))
		class.IsType = def.IsType
		class.Builtin = true
		class.Node = def
		class.Doc = def.Doc
		if err := scope.DefClass(class); err != nil {
			report(def.Name, "%s", err)
			continue
		}
		classes = append(classes, pending{def: def, class: class})
	}

	for _, pc := range classes {
		generic := pc.class.Generic
		for _, prop := range pc.def.Props {
			t, ok := r.resolve(scope, prop.Type, generic, report)
			if !ok {
				continue
			}
			pc.class.defProp(&Var{Name: prop.Name.Name, Type: t, Node: prop, Doc: prop.Doc, Builtin: true})
		}
		for _, m := range pc.def.Methods {
			fn, ok := r.signature(scope, m, generic, report)
			if !ok {
				continue
			}
			fn.Owner = pc.class
			if !pc.class.defMethod(fn) {
				report(m.Name, "Method '%s' is already defined on %s", fn.Signature(), pc.class.Name)
			}
		}
	}

	for _, n := range file.Body {
		switch n := n.(type) {
		case *parser.FuncDef:
			fn, ok := r.signature(scope, n, nil, report)
			if !ok {
				continue
			}
			if err := scope.DefFunc(fn); err != nil {
				report(n.Name, "%s", err)
			}
		case *parser.VarDef:
			t, ok := r.resolve(scope, n.Type, nil, report)
			if !ok {
				continue
			}
			scope.DefVar(&Var{Name: n.Name.Name, Type: t, Node: n, Doc: n.Doc, Builtin: true})
		}
	}
	return fail.Err()
}

func (r *Registry) signature(scope *Scope, def *parser.FuncDef, generic []string, report func(parser.Node, string, ...interface{})) (*Func, bool) {
	fn := &Func{Name: def.Name.Name, Node: def, Doc: def.Doc, Builtin: true, Ret: Void}
	for _, p := range def.Params {
		t, ok := r.resolve(scope, p.Type, generic, report)
		if !ok {
			return nil, false
		}
		fn.Params = append(fn.Params, &Var{Name: p.Name.Name, Type: t, Node: p, Builtin: true})
	}
	if def.Ret != nil {
		t, ok := r.resolve(scope, def.Ret, generic, report)
		if !ok {
			return nil, false
		}
		fn.Ret = t
	}
	fn.Alias = Alias(fn.Name, fn.ParamTypes())
	return fn, true
}

func (r *Registry) resolve(scope *Scope, ref *parser.TypeRef, generic []string, report func(parser.Node, string, ...interface{})) (Type, bool) {
	if ref == nil {
		return Invalid, false
	}
	name := ref.Name.Name
	for _, g := range generic {
		if g == name {
			return &ParamType{Name: name}, true
		}
	}
	if name == "void" {
		return Void, true
	}
	class := scope.Class(name)
	if class == nil {
		report(ref, "Unknown type '%s'", name)
		return Invalid, false
	}
	if len(class.Generic) != len(ref.Args) {
		report(ref, "Class '%s' expects %d type argument(s) but got %d", name, len(class.Generic), len(ref.Args))
		return Invalid, false
	}
	t := &InstanceType{Class: class}
	for _, a := range ref.Args {
		at, ok := r.resolve(scope, a, generic, report)
		if !ok {
			return Invalid, false
		}
		t.Generic = append(t.Generic, at)
	}
	return t, true
}

// Class returns a builtin class by name.
func (r *Registry) Class(name string) *Class {
	return r.Scope.Class(name)
}

// Instance returns the non-generic instance type of a builtin class, or
// Invalid when the class is not declared.
func (r *Registry) Instance(name string) Type {
	if c := r.Class(name); c != nil {
		return &InstanceType{Class: c}
	}
	return Invalid
}

// Funcs lists every builtin function and method overload.
func (r *Registry) Funcs() []*Func {
	out := r.Scope.AllFuncs()
	for _, c := range r.Scope.Classes() {
		for _, name := range c.MethodNames() {
			out = append(out, c.Methods(name)...)
		}
	}
	return out
}

func identNames(ids []*parser.Ident) []string {
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return names
}
