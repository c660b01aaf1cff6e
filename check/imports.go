package check

import (
	"strings"

	"github.com/sergev/sour/parser"
)

// ImportPath normalises an import string: the `.sour` extension is optional.
func ImportPath(p string) string {
	if !strings.HasSuffix(p, ".sour") {
		p += ".sour"
	}
	return p
}

// importFile resolves an import against the host modules of the registry,
// then against files relative to the importing file.
func (v *Validator) importFile(n *parser.Import, scope *Scope) {
	if n.Path == nil || n.Path.Value == "" {
		v.errorf(n, "Import path must not be empty")
		return
	}
	if mod, ok := v.reg.Modules[n.Path.Value]; ok {
		res := &Result{Exports: mod, Info: NewInfo(), Path: n.Path.Value}
		v.info.Imports[n] = res
		v.merge(n, mod, scope)
		return
	}
	if v.file == nil {
		v.errorf(n, "Cannot import '%s' from a source without a file", n.Path.Value)
		return
	}
	target := v.file.Parent().Child(ImportPath(n.Path.Value))
	if target.Path() == v.file.Path() {
		v.errorf(n.Path, "File cannot import itself")
		return
	}
	if !target.Exists() {
		v.errorf(n.Path, "Cannot find module '%s'", n.Path.Value)
		return
	}
	for i, p := range v.imports.chain {
		if p == target.Path() {
			cycle := append(append([]string{}, v.imports.chain[i:]...), p)
			v.errorf(n.Path, "Import cycle: %s", strings.Join(cycle, " -> "))
			return
		}
	}

	res, ok := v.imports.modules[target.Path()]
	if !ok {
		src, err := target.Read()
		if err != nil {
			v.errorf(n.Path, "Cannot read module '%s': %v", n.Path.Value, err)
			return
		}
		child := NewValidator(v.reg, target)
		child.imports = &importState{
			chain:   append(append([]string{}, v.imports.chain...), target.Path()),
			modules: v.imports.modules,
		}
		ast, errs := parser.Parse(src, target.Path())
		errs = append(errs, child.Check(ast)...)
		res = &Result{File: ast, Errors: errs, Exports: child.exports, Info: child.info, Path: target.Path()}
		v.imports.modules[target.Path()] = res
		v.errs = append(v.errs, errs...)
	}
	v.info.Imports[n] = res
	v.merge(n, res.Exports, scope)
}

// merge copies exported declarations into the importing scope.
func (v *Validator) merge(n *parser.Import, exports *Scope, scope *Scope) {
	for _, c := range exports.Classes() {
		if existing := scope.classes[c.Name]; existing == c {
			continue
		}
		if err := scope.DefClass(c); err != nil {
			v.errorf(n, "Imported %s", err)
		}
	}
	for _, fn := range exports.AllFuncs() {
		if containsFunc(scope.funcs[fn.Name], fn) {
			continue
		}
		if err := scope.DefFunc(fn); err != nil {
			v.errorf(n, "Imported function %s", err)
		}
	}
	for _, vr := range exports.Vars() {
		scope.DefVar(vr)
	}
}

func containsFunc(fns []*Func, fn *Func) bool {
	for _, f := range fns {
		if f == fn {
			return true
		}
	}
	return false
}
