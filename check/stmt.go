package check

import (
	"github.com/sergev/sour/parser"
)

func (v *Validator) stmt(n parser.Node, scope *Scope) {
	switch n := n.(type) {
	case *parser.Bad:
	case *parser.Import:
		v.importFile(n, scope)
	case *parser.Export:
		v.export(n, scope)
	case *parser.FuncDecl:
		if fn := v.declareFunc(n, scope); fn != nil {
			v.funcBody(fn, n, scope, nil)
		}
	case *parser.ClassDecl:
		v.classDecl(n, scope)
	case *parser.VarDecl:
		v.varDecl(n, scope)
	case *parser.If:
		v.condition(n.Cond, scope)
		v.block(n.Then, v.enter(ScopeBlock, scope, n))
		if n.Else != nil {
			v.block(n.Else, v.enter(ScopeBlock, scope, n))
		}
	case *parser.While:
		v.condition(n.Cond, scope)
		v.block(n.Body, v.enter(ScopeLoop, scope, n))
	case *parser.For:
		loop := v.enter(ScopeLoop, scope, n)
		if n.Init != nil {
			v.stmt(n.Init, loop)
		}
		v.condition(n.Cond, loop)
		v.expr(n.Step, loop)
		v.block(n.Body, v.enter(ScopeBlock, loop, n))
	case *parser.Return:
		v.returnStmt(n, scope)
	case *parser.Break:
		if !scope.InLoop() {
			v.errorf(n, "'break' outside of a loop")
		}
	case *parser.Print:
		v.expr(n.Value, scope)
	default:
		v.expr(n, scope)
	}
}

func (v *Validator) block(stmts []parser.Node, scope *Scope) {
	for _, s := range stmts {
		v.stmt(s, scope)
	}
}

func (v *Validator) condition(n parser.Node, scope *Scope) {
	t := v.expr(n, scope)
	if IsInvalid(t) {
		return
	}
	if !v.isBool(t) {
		v.errorf(n, "Condition must be bool, not %s", t)
	}
}

func (v *Validator) export(n *parser.Export, scope *Scope) {
	v.stmt(n.Decl, scope)
	sym, ok := v.info.Defs[n.Decl]
	if !ok {
		return
	}
	switch sym := sym.(type) {
	case *Func:
		if err := v.exports.DefFunc(sym); err != nil {
			v.errorf(n, "%s", err)
		}
	case *Class:
		if err := v.exports.DefClass(sym); err != nil {
			v.errorf(n, "%s", err)
		}
	case *Var:
		v.exports.DefVar(sym)
	}
}

// signature resolves a function declaration's parameter and return types.
func (v *Validator) signature(n *parser.FuncDecl, scope *Scope) *Func {
	fn := &Func{Name: n.Name.Name, Node: n, Doc: n.Doc, Ret: Void}
	for _, p := range n.Params {
		t := v.resolveType(p.Type, scope)
		param := &Var{Name: p.Name.Name, Type: t, Node: p}
		fn.Params = append(fn.Params, param)
		v.info.Defs[p] = param
	}
	if n.Ret != nil {
		fn.Ret = v.resolveType(n.Ret, scope)
	}
	fn.Alias = Alias(fn.Name, fn.ParamTypes())
	return fn
}

// declareFunc registers a function before its body is checked, so the body
// can call itself.
func (v *Validator) declareFunc(n *parser.FuncDecl, scope *Scope) *Func {
	fn := v.signature(n, scope)
	if err := scope.DefFunc(fn); err != nil {
		v.errorf(n.Name, "Function '%s' is already defined", fn.Signature())
		return nil
	}
	v.info.Defs[n] = fn
	return fn
}

func (v *Validator) funcBody(fn *Func, n *parser.FuncDecl, scope *Scope, this Type) {
	body := v.enter(ScopeFunc, scope, n)
	body.Func = fn
	if this != nil {
		body.DefVar(&Var{Name: "this", Type: this, Node: n, Builtin: true})
	}
	for _, p := range fn.Params {
		body.DefVar(p)
	}
	v.block(n.Body, body)
}

func (v *Validator) returnStmt(n *parser.Return, scope *Scope) {
	fn := scope.Function()
	if fn == nil {
		v.errorf(n, "'return' outside of a function")
		if n.Value != nil {
			v.expr(n.Value, scope)
		}
		return
	}
	if n.Value == nil {
		if fn.Ret != Void && !IsInvalid(fn.Ret) {
			v.errorf(n, "Missing return value of type %s", fn.Ret)
		}
		return
	}
	t := v.expr(n.Value, scope)
	if IsInvalid(t) || IsInvalid(fn.Ret) {
		return
	}
	if fn.Ret == Void {
		v.errorf(n.Value, "Function '%s' does not return a value", fn.Name)
		return
	}
	if !Equal(t, fn.Ret) {
		v.errorf(n.Value, "Cannot return %s from a function returning %s", t, fn.Ret)
	}
}

func (v *Validator) varDecl(n *parser.VarDecl, scope *Scope) *Var {
	var declared Type
	if n.Type != nil {
		declared = v.resolveType(n.Type, scope)
	}
	var t Type
	if n.Value != nil {
		vt := v.expr(n.Value, scope)
		switch {
		case vt == Void:
			v.errorf(n.Value, "Cannot assign a void value to '%s'", n.Name.Name)
			vt = Invalid
		case declared != nil && !IsInvalid(declared) && !IsInvalid(vt) && !Equal(declared, vt):
			v.errorf(n.Value, "Cannot assign %s to variable '%s' of type %s", vt, n.Name.Name, declared)
		}
		t = vt
	}
	if declared != nil {
		t = declared
	}
	if t == nil {
		v.errorf(n, "Variable '%s' needs a type or an initial value", n.Name.Name)
		t = Invalid
	}
	vr := &Var{Name: n.Name.Name, Type: t, Node: n, Doc: n.Doc}
	scope.DefVar(vr)
	v.info.Defs[n] = vr
	return vr
}

func (v *Validator) classDecl(n *parser.ClassDecl, scope *Scope) {
	class := newClass(n.Name.Name, identNames(n.Generic))
	class.Node = n
	class.Doc = n.Doc
	if err := scope.DefClass(class); err != nil {
		v.errorf(n.Name, "Class '%s' is already defined", class.Name)
		return
	}
	v.info.Defs[n] = class

	cs := v.enter(ScopeClass, scope, n)
	cs.Owner = class
	class.scope = cs

	this := &InstanceType{Class: class}
	for _, g := range class.Generic {
		this.Generic = append(this.Generic, &ParamType{Name: g})
	}

	for _, p := range n.Props {
		prop := v.varDecl(p, cs)
		class.defProp(prop)
	}

	methods := make([]*Func, len(n.Methods))
	for i, m := range n.Methods {
		fn := v.signature(m, cs)
		fn.Owner = class
		if m.Name.Name == "init" && class.Constructor() != nil {
			v.errorf(m.Name, "Class '%s' already has a constructor", class.Name)
			continue
		}
		if !class.defMethod(fn) {
			v.errorf(m.Name, "Method '%s' is already defined", fn.Signature())
			continue
		}
		if err := cs.DefFunc(fn); err != nil {
			v.errorf(m.Name, "%s", err)
			continue
		}
		if m.Name.Name == "init" && fn.Ret != Void {
			v.errorf(m.Ret, "Constructor of '%s' cannot return a value", class.Name)
		}
		v.info.Defs[m] = fn
		methods[i] = fn
	}
	for i, m := range n.Methods {
		if methods[i] != nil {
			v.funcBody(methods[i], m, cs, this)
		}
	}
}
