package lang

import (
	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
)

// evaluateCurrent performs one step on st.node: it either delivers a value
// or pushes frames and moves on to a child node.
func (ev *Evaluator) evaluateCurrent(st *evalState) error {
	st.at = st.node
	env := st.env
	switch n := st.node.(type) {
	case *parser.NumLit:
		st.deliver(ByteValue(n.Value))
	case *parser.StrLit:
		st.deliver(StringValue(n.Value))
	case *parser.CharLit:
		st.deliver(CharValue(n.Value))
	case *parser.Ident:
		v, err := env.Get(n.Name)
		if err != nil {
			return err
		}
		st.deliver(v)

	case *parser.VarDecl:
		if n.Value == nil {
			env.Define(n.Name.Name, Null)
			st.deliver(Null)
			return nil
		}
		return ev.collect(st, env, []parser.Node{n.Value}, func(vals []Value) error {
			env.Define(n.Name.Name, vals[0])
			st.deliver(vals[0])
			return nil
		})
	case *parser.FuncDecl:
		fn, err := ev.funcOf(st, n)
		if err != nil {
			return err
		}
		env.DefineFunc(fn.Alias, &Closure{Decl: n, Func: fn, Env: env, Module: st.mod})
		st.deliver(Null)
	case *parser.ClassDecl:
		env.DefineClass(ev.declareClass(st, n, env))
		st.deliver(Null)
	case *parser.Export:
		return ev.collect(st, env, []parser.Node{n.Decl}, func(vals []Value) error {
			if err := ev.export(st, n.Decl, env); err != nil {
				return err
			}
			st.deliver(vals[0])
			return nil
		})
	case *parser.Import:
		return ev.importModule(st, n, env)

	case *parser.If:
		st.push(&ifFrame{then: n.Then, els: n.Else, env: env})
		st.setNode(n.Cond, env)
	case *parser.While:
		loop := &loopFrame{cond: n.Cond, body: n.Body, env: env}
		loop.start(st)
	case *parser.For:
		scope := NewEnv(env)
		loop := &loopFrame{cond: n.Cond, step: n.Step, body: n.Body, env: scope}
		if n.Init == nil {
			loop.start(st)
			return nil
		}
		st.push(&thenFrame{fn: func(Value) error {
			loop.start(st)
			return nil
		}})
		st.setNode(n.Init, scope)
	case *parser.Return:
		if n.Value == nil {
			ev.unwindReturn(st, Null)
			return nil
		}
		return ev.collect(st, env, []parser.Node{n.Value}, func(vals []Value) error {
			ev.unwindReturn(st, vals[0])
			return nil
		})
	case *parser.Break:
		return ev.unwindBreak(st)

	case *parser.Binary:
		fn, err := ev.resolved(st, n, n.Op.Value)
		if err != nil {
			return err
		}
		return ev.collect(st, env, []parser.Node{n.Left, n.Right}, func(vals []Value) error {
			m, err := ev.method(vals[0], fn.Alias, n.Op.Value)
			if err != nil {
				return err
			}
			return ev.invoke(st, m, vals[0], vals[1:], n)
		})
	case *parser.Unary:
		return ev.increment(st, n, env)
	case *parser.Call:
		return ev.call(st, n, env)
	case *parser.Dot:
		return ev.collect(st, env, []parser.Node{n.Left}, func(vals []Value) error {
			v, err := ev.property(vals[0], n.Name.Name)
			if err != nil {
				return err
			}
			st.deliver(v)
			return nil
		})
	case *parser.Index:
		fn, err := ev.resolved(st, n, "[]")
		if err != nil {
			return err
		}
		return ev.collect(st, env, []parser.Node{n.Left, n.Index}, func(vals []Value) error {
			m, err := ev.method(vals[0], fn.Alias, "_get")
			if err != nil {
				return err
			}
			return ev.invoke(st, m, vals[0], vals[1:], n)
		})
	case *parser.Assign:
		return ev.assign(st, n, env)
	case *parser.New:
		return ev.construct(st, n, env)
	case *parser.Print:
		return ev.collect(st, env, []parser.Node{n.Value}, func(vals []Value) error {
			fn, ok := env.Func("print__" + vals[0].TypeName())
			if !ok {
				return referenceErrorf("Cannot print %s", vals[0].TypeName())
			}
			return ev.invoke(st, fn, Null, vals, n)
		})
	case *parser.Bad:
		return RangeErrorf("Cannot execute invalid code %q", n.Token.Value)
	default:
		return RangeErrorf("Cannot execute %s", st.node.Kind())
	}
	return nil
}

// resolved returns the overload validation chose for n.
func (ev *Evaluator) resolved(st *evalState, n parser.Node, name string) (*check.Func, error) {
	if st.mod.Info != nil {
		if fn := st.mod.Info.Calls[n]; fn != nil {
			return fn, nil
		}
	}
	return nil, referenceErrorf("'%s' was not resolved", name)
}

func (ev *Evaluator) funcOf(st *evalState, n *parser.FuncDecl) (*check.Func, error) {
	if st.mod.Info != nil {
		if fn, ok := st.mod.Info.Defs[n].(*check.Func); ok {
			return fn, nil
		}
	}
	return nil, referenceErrorf("'%s' was not resolved", n.Name.Name)
}

func (ev *Evaluator) declareClass(st *evalState, n *parser.ClassDecl, env *Env) *Class {
	class := NewClass(n.Name.Name)
	class.Decl = n
	class.Env = env
	class.Module = st.mod
	for _, m := range n.Methods {
		fn, err := ev.funcOf(st, m)
		if err != nil {
			continue
		}
		class.Methods[fn.Alias] = &Closure{Decl: m, Func: fn, Env: env, Module: st.mod}
	}
	return class
}

func (ev *Evaluator) export(st *evalState, decl parser.Node, env *Env) error {
	switch d := decl.(type) {
	case *parser.VarDecl:
		v, _ := env.Lookup(d.Name.Name)
		ev.Exports.Define(d.Name.Name, v)
	case *parser.FuncDecl:
		fn, err := ev.funcOf(st, d)
		if err != nil {
			return err
		}
		if c, ok := env.Func(fn.Alias); ok {
			ev.Exports.DefineFunc(fn.Alias, c)
		}
	case *parser.ClassDecl:
		if c, ok := env.Class(d.Name.Name); ok {
			ev.Exports.DefineClass(c)
		}
	}
	return nil
}

func (ev *Evaluator) importModule(st *evalState, n *parser.Import, env *Env) error {
	var res *check.Result
	if st.mod.Info != nil {
		res = st.mod.Info.Imports[n]
	}
	if res == nil {
		return referenceErrorf("Module '%s' was not resolved", n.Path.Value)
	}
	if ev.Importer == nil {
		return RangeErrorf("Cannot import '%s': no importer", n.Path.Value)
	}
	st.suspended = &suspension{start: func(resume func(Value, error)) {
		ev.Importer.Import(n, res, func(exports *Env, err error) {
			if err == nil {
				env.Merge(exports)
			}
			resume(Null, err)
		})
	}}
	return nil
}

func (ev *Evaluator) call(st *evalState, n *parser.Call, env *Env) error {
	fn, err := ev.resolved(st, n, "call")
	if err != nil {
		return err
	}
	if dot, ok := n.Callee.(*parser.Dot); ok {
		nodes := append([]parser.Node{dot.Left}, n.Args...)
		return ev.collect(st, env, nodes, func(vals []Value) error {
			m, err := ev.method(vals[0], fn.Alias, fn.Name)
			if err != nil {
				return err
			}
			return ev.invoke(st, m, vals[0], vals[1:], n)
		})
	}
	return ev.collect(st, env, n.Args, func(args []Value) error {
		if fn.Owner != nil {
			this, err := env.Get("this")
			if err != nil {
				return err
			}
			m, err := ev.method(this, fn.Alias, fn.Name)
			if err != nil {
				return err
			}
			return ev.invoke(st, m, this, args, n)
		}
		callee, ok := env.Func(fn.Alias)
		if !ok {
			return referenceErrorf("'%s' is not defined", fn.Name)
		}
		return ev.invoke(st, callee, Null, args, n)
	})
}

func (ev *Evaluator) property(recv Value, name string) (Value, error) {
	if o := recv.Object(); o != nil {
		if v, ok := o.Prop(name); ok {
			return v, nil
		}
		return Value{}, referenceErrorf("%s has no property '%s'", o.Class.Name, name)
	}
	if recv.Type == TypeNull {
		return Value{}, referenceErrorf("Cannot read '%s' of null", name)
	}
	if class := ev.Builtins[recv.Type]; class != nil {
		if get, ok := class.Getters[name]; ok {
			return get(recv), nil
		}
	}
	return Value{}, referenceErrorf("%s has no property '%s'", recv.TypeName(), name)
}

func setProperty(recv Value, name string, v Value) error {
	o := recv.Object()
	if o == nil {
		return RangeErrorf("Cannot assign property '%s' of %s", name, recv.TypeName())
	}
	o.SetProp(name, v)
	return nil
}

func (ev *Evaluator) assign(st *evalState, n *parser.Assign, env *Env) error {
	switch target := n.Target.(type) {
	case *parser.Ident:
		return ev.collect(st, env, []parser.Node{n.Value}, func(vals []Value) error {
			if err := env.Set(target.Name, vals[0]); err != nil {
				return err
			}
			st.deliver(vals[0])
			return nil
		})
	case *parser.Dot:
		return ev.collect(st, env, []parser.Node{target.Left, n.Value}, func(vals []Value) error {
			if err := setProperty(vals[0], target.Name.Name, vals[1]); err != nil {
				return err
			}
			st.deliver(vals[1])
			return nil
		})
	case *parser.Index:
		fn, err := ev.resolved(st, n, "_set")
		if err != nil {
			return err
		}
		return ev.collect(st, env, []parser.Node{target.Left, target.Index, n.Value}, func(vals []Value) error {
			m, err := ev.method(vals[0], fn.Alias, "_set")
			if err != nil {
				return err
			}
			st.push(&thenFrame{fn: func(Value) error {
				st.deliver(vals[2])
				return nil
			}})
			return ev.invoke(st, m, vals[0], vals[1:], n)
		})
	}
	return RangeErrorf("Invalid assignment target")
}

// unit is the step `++` adds to a value of v's kind.
func unit(v Value) (Value, error) {
	switch v.Type {
	case TypeByte:
		return ByteValue(1), nil
	case TypeChar:
		return CharValue(1), nil
	}
	return Value{}, RangeErrorf("Operator '++' is not defined for %s", v.TypeName())
}

// increment evaluates `x++`. The sum comes from the operand's `_add`
// method; store writes it back and delivers it.
func (ev *Evaluator) increment(st *evalState, n *parser.Unary, env *Env) error {
	fn, err := ev.resolved(st, n, "++")
	if err != nil {
		return err
	}
	add := func(cur Value, store func(Value) error) error {
		one, err := unit(cur)
		if err != nil {
			return err
		}
		m, err := ev.method(cur, fn.Alias, "++")
		if err != nil {
			return err
		}
		st.push(&thenFrame{fn: store})
		return ev.invoke(st, m, cur, []Value{one}, n)
	}

	switch operand := n.Operand.(type) {
	case *parser.Ident:
		cur, err := env.Get(operand.Name)
		if err != nil {
			return err
		}
		return add(cur, func(sum Value) error {
			if err := env.Set(operand.Name, sum); err != nil {
				return err
			}
			st.deliver(sum)
			return nil
		})
	case *parser.Dot:
		return ev.collect(st, env, []parser.Node{operand.Left}, func(vals []Value) error {
			cur, err := ev.property(vals[0], operand.Name.Name)
			if err != nil {
				return err
			}
			return add(cur, func(sum Value) error {
				if err := setProperty(vals[0], operand.Name.Name, sum); err != nil {
					return err
				}
				st.deliver(sum)
				return nil
			})
		})
	case *parser.Index:
		get, err := ev.resolved(st, operand, "_get")
		if err != nil {
			return err
		}
		var set *check.Func
		if st.mod.Info != nil {
			set = st.mod.Info.Stores[n]
		}
		if set == nil {
			return referenceErrorf("'_set' was not resolved")
		}
		return ev.collect(st, env, []parser.Node{operand.Left, operand.Index}, func(vals []Value) error {
			recv, key := vals[0], vals[1]
			getter, err := ev.method(recv, get.Alias, "_get")
			if err != nil {
				return err
			}
			setter, err := ev.method(recv, set.Alias, "_set")
			if err != nil {
				return err
			}
			st.push(&thenFrame{fn: func(cur Value) error {
				return add(cur, func(sum Value) error {
					st.push(&thenFrame{fn: func(Value) error {
						st.deliver(sum)
						return nil
					}})
					return ev.invoke(st, setter, recv, []Value{key, sum}, n)
				})
			}})
			return ev.invoke(st, getter, recv, []Value{key}, n)
		})
	}
	return RangeErrorf("Operand of '++' must be a variable, property or index")
}

// construct evaluates `new`. Builtin classes build their value natively.
// User objects get their properties initialised in declaration order, then
// run `init` when the class has one.
func (ev *Evaluator) construct(st *evalState, n *parser.New, env *Env) error {
	name := n.Class.Name.Name
	class, ok := env.Class(name)
	if !ok {
		return referenceErrorf("Class '%s' is not defined", name)
	}
	var ctor *check.Func
	if st.mod.Info != nil {
		ctor = st.mod.Info.Calls[n]
	}
	return ev.collect(st, env, n.Args, func(args []Value) error {
		if class.Decl == nil {
			if class.New == nil {
				return RangeErrorf("Cannot construct '%s'", name)
			}
			v, err := class.New(args)
			if err != nil {
				return err
			}
			st.deliver(v)
			return nil
		}
		obj := &Object{Class: class, Props: NewEnv(class.Env)}
		for _, p := range class.Decl.Props {
			obj.SetProp(p.Name.Name, Null)
		}
		this := ObjectValue(obj)
		finish := func() error {
			if ctor == nil {
				st.deliver(this)
				return nil
			}
			m, err := ev.method(this, ctor.Alias, "init")
			if err != nil {
				return err
			}
			st.push(&thenFrame{fn: func(Value) error {
				st.deliver(this)
				return nil
			}})
			return ev.invoke(st, m, this, args, n)
		}
		return ev.initProps(st, obj, class.Decl.Props, finish)
	})
}

func (ev *Evaluator) initProps(st *evalState, obj *Object, props []*parser.VarDecl, finish func() error) error {
	for i, p := range props {
		if p.Value == nil {
			continue
		}
		rest := props[i+1:]
		name := p.Name.Name
		st.push(&thenFrame{fn: func(v Value) error {
			obj.SetProp(name, v)
			return ev.initProps(st, obj, rest, finish)
		}})
		st.setNode(p.Value, obj.Props)
		return nil
	}
	return finish()
}
