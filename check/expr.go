package check

import (
	"github.com/sergev/sour/parser"
)

// OperatorMethods maps infix operators to the methods implementing them.
var OperatorMethods = map[string]string{
	"+":  "_add",
	"-":  "_sub",
	"*":  "_mul",
	"/":  "_div",
	"%":  "_mod",
	"<":  "_lt",
	">":  "_gt",
	"==": "_eq",
}

// expr types an expression, records the result and returns it. Failures
// are reported once and yield Invalid so callers stay quiet.
func (v *Validator) expr(n parser.Node, scope *Scope) Type {
	if n == nil {
		return Invalid
	}
	t := v.typeOf(n, scope)
	if t == nil {
		t = Invalid
	}
	v.info.Types[n] = t
	return t
}

func (v *Validator) typeOf(n parser.Node, scope *Scope) Type {
	switch n := n.(type) {
	case *parser.Bad:
		return Invalid
	case *parser.NumLit:
		return v.literal(n, "byte")
	case *parser.StrLit:
		return v.literal(n, "string")
	case *parser.CharLit:
		return v.literal(n, "char")
	case *parser.Ident:
		return v.ident(n, scope)
	case *parser.Binary:
		return v.binary(n, scope)
	case *parser.Unary:
		return v.increment(n, scope)
	case *parser.Call:
		return v.call(n, scope)
	case *parser.Dot:
		return v.dot(n, scope)
	case *parser.Index:
		return v.index(n, scope)
	case *parser.Assign:
		return v.assign(n, scope)
	case *parser.New:
		return v.newExpr(n, scope)
	default:
		v.errorf(n, "Unexpected %s in expression position", n.Kind())
		return Invalid
	}
}

func (v *Validator) ident(n *parser.Ident, scope *Scope) Type {
	if vr := scope.Var(n.Name); vr != nil {
		v.use(vr)
		v.info.Refs[n] = vr
		return vr.Type
	}
	if c := scope.Class(n.Name); c != nil {
		v.use(c)
		v.info.Refs[n] = c
		return &ClassType{Class: c}
	}
	if scope.HasFunc(n.Name) {
		v.errorf(n, "'%s' is a function and must be called", n.Name)
		return Invalid
	}
	v.errorf(n, "'%s' is not defined", n.Name)
	return Invalid
}

func (v *Validator) args(nodes []parser.Node, scope *Scope) ([]Type, bool) {
	types := make([]Type, len(nodes))
	ok := true
	for i, a := range nodes {
		types[i] = v.expr(a, scope)
		if IsInvalid(types[i]) {
			ok = false
		}
	}
	return types, ok
}

// method resolves an overloaded method on the receiver's class. found is
// false when the class has no method with that name at all.
func (v *Validator) method(recv Type, name string, args []Type) (fn *Func, ret Type, reasons []string, found bool) {
	it, ok := recv.(*InstanceType)
	if !ok {
		return nil, Invalid, nil, false
	}
	cands := it.Class.Methods(name)
	if len(cands) == 0 {
		return nil, Invalid, nil, false
	}
	subst := newSubstitution(it.Class, it.Generic)
	fn, reasons = suitable(cands, args, subst)
	if fn == nil {
		return nil, Invalid, reasons, true
	}
	return fn, subst.apply(fn.Ret), nil, true
}

func (v *Validator) binary(n *parser.Binary, scope *Scope) Type {
	lt := v.expr(n.Left, scope)
	rt := v.expr(n.Right, scope)
	if IsInvalid(lt) || IsInvalid(rt) {
		return Invalid
	}
	name := OperatorMethods[n.Op.Value]
	fn, ret, _, _ := v.method(lt, name, []Type{rt})
	if fn == nil {
		v.errorf(n, "Operator '%s' is not defined for %s and %s", n.Op.Value, lt, rt)
		return Invalid
	}
	v.use(fn)
	v.info.Calls[n] = fn
	return ret
}

func assignable(n parser.Node) bool {
	switch n.(type) {
	case *parser.Ident, *parser.Dot, *parser.Index:
		return true
	}
	return false
}

// Incrementable reports whether `++` has a unit step for t: only the
// builtin byte and char classes do.
func Incrementable(t Type) bool {
	c := InstanceOf(t)
	return c != nil && c.Builtin && (c.Name == "byte" || c.Name == "char")
}

func (v *Validator) increment(n *parser.Unary, scope *Scope) Type {
	if !assignable(n.Operand) {
		v.expr(n.Operand, scope)
		v.errorf(n.Operand, "Operand of '++' must be a variable, property or index")
		return Invalid
	}
	t := v.expr(n.Operand, scope)
	if IsInvalid(t) {
		return Invalid
	}
	fn, ret, _, _ := v.method(t, "_add", []Type{t})
	if fn == nil || !Equal(ret, t) || !Incrementable(t) {
		v.errorf(n, "Operator '++' is not defined for %s", t)
		return Invalid
	}
	if idx, ok := n.Operand.(*parser.Index); ok {
		recv, it := v.info.TypeOf(idx.Left), v.info.TypeOf(idx.Index)
		set, _, _, _ := v.method(recv, "_set", []Type{it, t})
		if set == nil {
			v.errorf(n, "%s does not support assigning %s at index %s", recv, t, it)
			return Invalid
		}
		v.use(set)
		v.info.Stores[n] = set
	}
	v.use(fn)
	v.info.Calls[n] = fn
	return t
}

func (v *Validator) call(n *parser.Call, scope *Scope) Type {
	switch callee := n.Callee.(type) {
	case *parser.Ident:
		cands := scope.Funcs(callee.Name)
		if len(cands) == 0 {
			v.args(n.Args, scope)
			v.errorf(callee, "'%s' is not a function", callee.Name)
			return Invalid
		}
		args, ok := v.args(n.Args, scope)
		if !ok {
			return Invalid
		}
		fn, reasons := suitable(cands, args, nil)
		if fn == nil {
			v.noOverload(n, callee.Name, args, reasons)
			return Invalid
		}
		v.use(fn)
		v.info.Refs[callee] = fn
		v.info.Calls[n] = fn
		return fn.Ret

	case *parser.Dot:
		recv := v.expr(callee.Left, scope)
		args, ok := v.args(n.Args, scope)
		if IsInvalid(recv) || !ok {
			return Invalid
		}
		name := callee.Name.Name
		fn, ret, reasons, found := v.method(recv, name, args)
		if !found {
			v.errorf(callee.Name, "%s has no method '%s'", recv, name)
			return Invalid
		}
		if fn == nil {
			v.noOverload(n, name, args, reasons)
			return Invalid
		}
		v.use(fn)
		v.info.Refs[callee.Name] = fn
		v.info.Calls[n] = fn
		return ret

	default:
		v.expr(n.Callee, scope)
		v.args(n.Args, scope)
		v.errorf(n.Callee, "Expression is not callable")
		return Invalid
	}
}

func (v *Validator) property(n *parser.Dot, recv Type) Type {
	it, ok := recv.(*InstanceType)
	if !ok {
		v.errorf(n.Name, "%s has no property '%s'", recv, n.Name.Name)
		return Invalid
	}
	prop := it.Class.Prop(n.Name.Name)
	if prop == nil {
		v.errorf(n.Name, "%s has no property '%s'", recv, n.Name.Name)
		return Invalid
	}
	v.info.Refs[n.Name] = prop
	return newSubstitution(it.Class, it.Generic).apply(prop.Type)
}

func (v *Validator) dot(n *parser.Dot, scope *Scope) Type {
	recv := v.expr(n.Left, scope)
	if IsInvalid(recv) {
		return Invalid
	}
	t := v.property(n, recv)
	if prop, ok := v.info.Refs[n.Name].(*Var); ok {
		v.use(prop)
	}
	return t
}

func (v *Validator) index(n *parser.Index, scope *Scope) Type {
	recv := v.expr(n.Left, scope)
	it := v.expr(n.Index, scope)
	if IsInvalid(recv) || IsInvalid(it) {
		return Invalid
	}
	fn, ret, _, _ := v.method(recv, "_get", []Type{it})
	if fn == nil {
		v.errorf(n, "%s cannot be indexed with %s", recv, it)
		return Invalid
	}
	v.use(fn)
	v.info.Calls[n] = fn
	return ret
}

func (v *Validator) assign(n *parser.Assign, scope *Scope) Type {
	switch target := n.Target.(type) {
	case *parser.Ident:
		vt := v.expr(n.Value, scope)
		vr := scope.Var(target.Name)
		if vr == nil {
			v.errorf(target, "'%s' is not defined", target.Name)
			return Invalid
		}
		v.info.Refs[target] = vr
		v.info.Types[target] = vr.Type
		return v.checkAssign(n.Value, vr.Type, vt)

	case *parser.Dot:
		recv := v.expr(target.Left, scope)
		vt := v.expr(n.Value, scope)
		if IsInvalid(recv) {
			return Invalid
		}
		pt := v.property(target, recv)
		v.info.Types[target] = pt
		if IsInvalid(pt) {
			return Invalid
		}
		return v.checkAssign(n.Value, pt, vt)

	case *parser.Index:
		recv := v.expr(target.Left, scope)
		it := v.expr(target.Index, scope)
		vt := v.expr(n.Value, scope)
		if IsInvalid(recv) || IsInvalid(it) || IsInvalid(vt) {
			return Invalid
		}
		fn, _, _, _ := v.method(recv, "_set", []Type{it, vt})
		if fn == nil {
			v.errorf(n, "%s does not support assigning %s at index %s", recv, vt, it)
			return Invalid
		}
		v.use(fn)
		v.info.Calls[n] = fn
		return vt

	default:
		v.expr(n.Target, scope)
		v.expr(n.Value, scope)
		v.errorf(n.Target, "Invalid assignment target")
		return Invalid
	}
}

func (v *Validator) checkAssign(value parser.Node, want, got Type) Type {
	if IsInvalid(want) || IsInvalid(got) {
		return Invalid
	}
	if !Equal(want, got) {
		v.errorf(value, "Cannot assign %s to %s", got, want)
		return Invalid
	}
	return got
}

func (v *Validator) newExpr(n *parser.New, scope *Scope) Type {
	t := v.resolveType(n.Class, scope)
	args, ok := v.args(n.Args, scope)
	if IsInvalid(t) || !ok {
		return Invalid
	}
	it, isInstance := t.(*InstanceType)
	if !isInstance {
		v.errorf(n.Class, "Cannot construct %s", t)
		return Invalid
	}
	if it.Class.IsType {
		v.errorf(n.Class, "Cannot construct value type '%s' with new", it.Class.Name)
		return Invalid
	}
	ctor := it.Class.Constructor()
	if ctor == nil {
		if len(args) > 0 {
			v.errorf(n, "Class '%s' has no constructor taking %s", it.Class.Name, signature("init", args))
			return Invalid
		}
		return it
	}
	fn, reasons := suitable([]*Func{ctor}, args, newSubstitution(it.Class, it.Generic))
	if fn == nil {
		v.noOverload(n, "init", args, reasons)
		return Invalid
	}
	v.use(fn)
	v.info.Calls[n] = fn
	return it
}
