package check

import (
	"fmt"
	"strings"

	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/vfs"
)

// Result is the outcome of validating one source file.
type Result struct {
	File    *parser.File
	Errors  []*parser.Error // parse and compile diagnostics, this file's and its imports'
	Exports *Scope
	Info    *Info
	Path    string
}

// OK reports whether validation found no problems.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// Err returns the diagnostics as a single error, or nil.
func (r *Result) Err() error {
	return parser.ErrorList(r.Errors).Err()
}

// Validator checks files against a builtin registry. A Validator keeps its
// file scope between calls to Check, which is what the REPL relies on.
type Validator struct {
	reg     *Registry
	file    vfs.File
	scope   *Scope
	exports *Scope
	info    *Info

	src  string
	path string
	errs []*parser.Error

	imports *importState
}

type importState struct {
	chain   []string
	modules map[string]*Result
}

// NewValidator returns a validator for a file. The handle may be nil for
// sources that are not backed by a file; such sources cannot import.
func NewValidator(reg *Registry, file vfs.File) *Validator {
	v := &Validator{
		reg:     reg,
		file:    file,
		scope:   NewScope(ScopeFile, reg.Scope),
		exports: NewScope(ScopeExports, nil),
		info:    NewInfo(),
		imports: &importState{modules: make(map[string]*Result)},
	}
	if file != nil {
		v.path = file.Path()
		v.imports.chain = []string{file.Path()}
	}
	return v
}

// Validate parses and validates src.
func Validate(src string, file vfs.File, reg *Registry) *Result {
	v := NewValidator(reg, file)
	path := ""
	if file != nil {
		path = file.Path()
	}
	ast, errs := parser.Parse(src, path)
	errs = append(errs, v.Check(ast)...)
	return &Result{File: ast, Errors: errs, Exports: v.exports, Info: v.info, Path: path}
}

// Scope returns the file scope.
func (v *Validator) Scope() *Scope { return v.scope }

// Info returns the side table shared by every Check call.
func (v *Validator) Info() *Info { return v.info }

// Exports returns the scope of exported declarations.
func (v *Validator) Exports() *Scope { return v.exports }

// Check validates a parsed file in the validator's file scope and returns
// the compile errors it found, including those of imported files.
func (v *Validator) Check(file *parser.File) []*parser.Error {
	v.src = file.Source
	if file.Path != "" {
		v.path = file.Path
	}
	v.errs = nil
	v.info.Scopes = append(v.info.Scopes, ScopeSpan{Span: fileSpan(file), Scope: v.scope})
	for _, n := range file.Body {
		v.stmt(n, v.scope)
	}
	return v.errs
}

// CheckAtomic is Check for incremental input: when the file has errors the
// file and export scopes are left as they were before the call.
func (v *Validator) CheckAtomic(file *parser.File) []*parser.Error {
	scope, exports := v.scope.save(), v.exports.save()
	errs := v.Check(file)
	if len(errs) > 0 {
		v.scope.restore(scope)
		v.exports.restore(exports)
	}
	return errs
}

func fileSpan(file *parser.File) parser.Span {
	end := parser.Position{Index: len(file.Source), Line: 1, Column: 1}
	if n := len(file.Tokens); n > 0 {
		end = file.Tokens[n-1].End
	}
	return parser.Span{Start: parser.Position{Index: 0, Line: 1, Column: 1}, End: end}
}

func (v *Validator) errorf(n parser.Node, format string, args ...interface{}) {
	v.errs = append(v.errs, parser.NewError(parser.CompileError, n.Span(), v.path, v.src, format, args...))
}

func (v *Validator) enter(kind ScopeKind, parent *Scope, n parser.Node) *Scope {
	sc := NewScope(kind, parent)
	v.info.Scopes = append(v.info.Scopes, ScopeSpan{Span: n.Span(), Scope: sc})
	return sc
}

func (v *Validator) use(sym Symbol) {
	switch s := sym.(type) {
	case *Var:
		if !s.Builtin {
			s.Used = true
		}
	case *Func:
		if !s.Builtin {
			s.Used = true
		}
	case *Class:
		if !s.Builtin {
			s.Used = true
		}
	}
}

// literal returns the instance type of a builtin class used for literals.
func (v *Validator) literal(n parser.Node, name string) Type {
	t := v.reg.Instance(name)
	if IsInvalid(t) {
		v.errorf(n, "Builtin class '%s' is not defined", name)
	}
	return t
}

func (v *Validator) isBool(t Type) bool {
	c := InstanceOf(t)
	return c != nil && c.Builtin && c.Name == "bool"
}

// resolveType turns an annotation into a type. Generic parameters of the
// enclosing class resolve to ParamType.
func (v *Validator) resolveType(ref *parser.TypeRef, scope *Scope) Type {
	name := ref.Name.Name
	if name == "" {
		return Invalid
	}
	for sc := scope; sc != nil; sc = sc.Parent {
		if sc.Kind == ScopeClass && sc.Owner != nil {
			for _, g := range sc.Owner.Generic {
				if g == name {
					return &ParamType{Name: name}
				}
			}
		}
	}
	if name == "void" {
		return Void
	}
	class := scope.Class(name)
	if class == nil {
		v.errorf(ref.Name, "Unknown type '%s'", name)
		return Invalid
	}
	v.use(class)
	v.info.Refs[ref.Name] = class
	if len(class.Generic) != len(ref.Args) {
		v.errorf(ref, "Class '%s' expects %d type argument(s) but got %d", name, len(class.Generic), len(ref.Args))
		return Invalid
	}
	t := &InstanceType{Class: class}
	for _, a := range ref.Args {
		at := v.resolveType(a, scope)
		if IsInvalid(at) {
			return Invalid
		}
		t.Generic = append(t.Generic, at)
	}
	return t
}

// suitable picks the first overload whose parameter types equal the argument
// types. On failure it returns one line per rejected candidate.
func suitable(cands []*Func, args []Type, subst substitution) (*Func, []string) {
	var reasons []string
	for _, fn := range cands {
		params := fn.ParamTypes()
		for i := range params {
			params[i] = subst.apply(params[i])
		}
		if sameParams(params, args) {
			return fn, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s is not applicable for %s",
			signature(fn.Name, params), signature(fn.Name, args)))
	}
	return nil, reasons
}

func (v *Validator) noOverload(n parser.Node, name string, args []Type, reasons []string) {
	v.errorf(n, "No overload of '%s' matches %s:\n  %s", name, signature(name, args), strings.Join(reasons, "\n  "))
}
