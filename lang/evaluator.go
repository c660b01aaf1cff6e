package lang

import (
	"fmt"
	"sync"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
)

// Continuation receives the outcome of an execution.
type Continuation struct {
	Resolve func(Value)
	Reject  func(error)
}

func (c Continuation) resolve(v Value) {
	if c.Resolve != nil {
		c.Resolve(v)
	}
}

func (c Continuation) reject(err error) {
	if c.Reject != nil {
		c.Reject(err)
	}
}

// Importer loads the module behind an import statement and hands back its
// exported bindings. It may call done later from another goroutine.
type Importer interface {
	Import(n *parser.Import, res *check.Result, done func(exports *Env, err error))
}

// Evaluator executes validated Sour programs with an explicit frame stack.
// Steps never overlap: a resumed program waits for the previous step to
// finish.
type Evaluator struct {
	Global   *Env
	Builtins map[ValueType]*Class // classes of non-object values
	Exports  *Env
	Importer Importer

	mu sync.Mutex
}

// NewEvaluator constructs an evaluator rooted at a new global environment.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		Global:   NewEnv(nil),
		Builtins: make(map[ValueType]*Class),
		Exports:  NewEnv(nil),
	}
}

type suspension struct {
	start func(resume func(Value, error))
}

// Suspend is returned by a native to park the program. start receives the
// resume function, which must be called exactly once, from any goroutine,
// before or after start returns.
func Suspend(start func(resume func(Value, error))) Value {
	return Value{Type: typeSuspend, payload: &suspension{start: start}}
}

// Exec runs the top-level statements of file in env and reports the value
// of the last statement, or the runtime error, through cont.
func (ev *Evaluator) Exec(file *parser.File, info *check.Info, env *Env, cont Continuation) {
	if env == nil {
		env = NewEnv(ev.Global)
	}
	st := &evalState{
		env:  env,
		mod:  &Module{Path: file.Path, Source: file.Source, Info: info},
		fn:   "<main>",
		done: cont,
	}
	ev.evalBlock(st, file.Body, env)
	ev.drive(st)
}

// Run is Exec for hosts that want to block until the program finishes.
func (ev *Evaluator) Run(file *parser.File, info *check.Info, env *Env) (Value, error) {
	type result struct {
		v   Value
		err error
	}
	ch := make(chan result, 1)
	ev.Exec(file, info, env, Continuation{
		Resolve: func(v Value) { ch <- result{v: v} },
		Reject:  func(err error) { ch <- result{err: err} },
	})
	res := <-ch
	return res.v, res.err
}

type evalState struct {
	node      parser.Node
	env       *Env
	cont      []frame
	value     Value
	returning bool

	mod       *Module
	fn        string      // name of the running function, for traces
	at        parser.Node // last node dispatched, for traces
	suspended *suspension
	err       error // delivered by a failed resume
	done      Continuation
}

func (st *evalState) push(f frame) {
	st.cont = append(st.cont, f)
}

func (st *evalState) pop() frame {
	l := len(st.cont)
	if l == 0 {
		return nil
	}
	f := st.cont[l-1]
	st.cont = st.cont[:l-1]
	return f
}

func (st *evalState) setNode(n parser.Node, env *Env) {
	st.node = n
	if env != nil {
		st.env = env
	}
	st.returning = false
}

func (st *evalState) deliver(v Value) {
	st.value = v
	st.returning = true
}

type frame interface {
	apply(ev *Evaluator, val Value, state *evalState) error
}

// drive runs the program until it finishes or parks on a suspension that
// does not complete synchronously.
func (ev *Evaluator) drive(st *evalState) {
	for {
		ev.mu.Lock()
		susp, err := ev.run(st)
		ev.mu.Unlock()
		if err != nil {
			st.done.reject(err)
			return
		}
		if susp == nil {
			st.done.resolve(st.value)
			return
		}
		if !ev.park(st, susp) {
			return
		}
	}
}

// park starts a suspension and reports whether it was resumed before start
// returned, in which case the caller keeps driving on its own stack.
func (ev *Evaluator) park(st *evalState, s *suspension) bool {
	var (
		mu       sync.Mutex
		once     sync.Once
		starting = true
		resumed  = false
	)
	s.start(func(v Value, err error) {
		once.Do(func() {
			if err != nil {
				st.err = err
			} else {
				st.deliver(v)
			}
			mu.Lock()
			if starting {
				resumed = true
				mu.Unlock()
				return
			}
			mu.Unlock()
			ev.drive(st)
		})
	})
	mu.Lock()
	starting = false
	inline := resumed
	mu.Unlock()
	return inline
}

func (ev *Evaluator) run(st *evalState) (*suspension, error) {
	for {
		if st.err != nil {
			err := st.err
			st.err = nil
			return nil, ev.fail(st, err)
		}
		var err error
		if st.returning {
			if len(st.cont) == 0 {
				return nil, nil
			}
			err = st.pop().apply(ev, st.value, st)
		} else {
			err = ev.evaluateCurrent(st)
		}
		if err != nil {
			return nil, ev.fail(st, err)
		}
		if s := st.suspended; s != nil {
			st.suspended = nil
			return s, nil
		}
	}
}

// fail attaches a stack trace to err: the failing position first, then
// every active call site from the innermost outwards.
func (ev *Evaluator) fail(st *evalState, err error) error {
	rerr := asRuntimeError(err)
	if rerr.Stack != nil {
		return rerr
	}
	entry := StackEntry{Name: st.fn, Path: st.mod.Path}
	if st.at != nil {
		entry.Pos = st.at.Span().Start
	}
	rerr.Stack = append(rerr.Stack, entry)
	for i := len(st.cont) - 1; i >= 0; i-- {
		if cf, ok := st.cont[i].(*callFrame); ok {
			rerr.Stack = append(rerr.Stack, StackEntry{Name: cf.fn, Path: cf.mod.Path, Pos: cf.site})
		}
	}
	return rerr
}

// ClassOf returns the runtime class used to dispatch methods on v.
func (ev *Evaluator) ClassOf(v Value) *Class {
	if o := v.Object(); o != nil {
		return o.Class
	}
	return ev.Builtins[v.Type]
}

func (ev *Evaluator) method(recv Value, alias, name string) (Callable, error) {
	if recv.Type == TypeNull {
		return nil, referenceErrorf("Cannot call '%s' on null", name)
	}
	class := ev.ClassOf(recv)
	if class == nil {
		return nil, referenceErrorf("%s has no method '%s'", recv.TypeName(), name)
	}
	fn, ok := class.Method(alias)
	if !ok {
		return nil, referenceErrorf("%s has no method '%s'", class.Name, name)
	}
	return fn, nil
}

// invoke calls fn. Natives complete (or suspend) immediately; closures push
// a call frame and start their body.
func (ev *Evaluator) invoke(st *evalState, fn Callable, this Value, args []Value, site parser.Node) error {
	st.at = site
	switch fn := fn.(type) {
	case *Native:
		v, err := callNative(ev, fn, this, args)
		if err != nil {
			return err
		}
		if s := v.suspension(); s != nil {
			st.suspended = s
			return nil
		}
		st.deliver(v)
		return nil

	case *Closure:
		parent := fn.Env
		if o := this.Object(); o != nil {
			parent = o.Props
		}
		env := NewEnv(parent)
		if this.Type != TypeNull {
			env.Define("this", this)
		}
		for i, p := range fn.Decl.Params {
			if i < len(args) {
				env.Define(p.Name.Name, args[i])
			}
		}
		st.push(&callFrame{env: st.env, mod: st.mod, fn: st.fn, site: site.Span().Start})
		st.mod = fn.Module
		st.fn = fn.FuncName()
		ev.evalBlock(st, fn.Decl.Body, env)
		return nil
	}
	return RangeErrorf("value is not callable")
}

func callNative(ev *Evaluator, fn *Native, this Value, args []Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = Value{}, RangeErrorf("%s: %v", fn.Name, r)
		}
	}()
	v, err = fn.Fn(ev, this, args)
	if err != nil {
		if _, ok := err.(*RuntimeError); !ok {
			err = &RuntimeError{Kind: RangeError, Message: fmt.Sprintf("%s: %v", fn.Name, err), Cause: err}
		}
	}
	return v, err
}

// callFrame marks a function boundary. Falling off the end of a body
// returns null.
type callFrame struct {
	env  *Env
	mod  *Module
	fn   string
	site parser.Position
}

func (f *callFrame) restore(st *evalState) {
	st.env = f.env
	st.mod = f.mod
	st.fn = f.fn
}

func (f *callFrame) apply(ev *Evaluator, val Value, st *evalState) error {
	f.restore(st)
	st.deliver(Null)
	return nil
}

// blockFrame runs statements in order and yields the last statement's value.
type blockFrame struct {
	stmts []parser.Node
	env   *Env
}

func (f *blockFrame) apply(ev *Evaluator, val Value, st *evalState) error {
	if len(f.stmts) == 0 {
		st.deliver(val)
		return nil
	}
	next := f.stmts[0]
	f.stmts = f.stmts[1:]
	st.push(f)
	st.setNode(next, f.env)
	return nil
}

func (ev *Evaluator) evalBlock(st *evalState, stmts []parser.Node, env *Env) {
	if len(stmts) == 0 {
		st.env = env
		st.deliver(Null)
		return
	}
	if len(stmts) > 1 {
		st.push(&blockFrame{stmts: stmts[1:], env: env})
	}
	st.setNode(stmts[0], env)
}

// thenFrame hands the delivered value to a Go continuation.
type thenFrame struct {
	fn func(Value) error
}

func (f *thenFrame) apply(ev *Evaluator, val Value, st *evalState) error {
	return f.fn(val)
}

// collectFrame evaluates nodes left to right and passes all values on.
type collectFrame struct {
	rest []parser.Node
	env  *Env
	vals []Value
	then func([]Value) error
}

func (f *collectFrame) apply(ev *Evaluator, val Value, st *evalState) error {
	f.vals = append(f.vals, val)
	if len(f.rest) == 0 {
		return f.then(f.vals)
	}
	next := f.rest[0]
	f.rest = f.rest[1:]
	st.push(f)
	st.setNode(next, f.env)
	return nil
}

func (ev *Evaluator) collect(st *evalState, env *Env, nodes []parser.Node, then func([]Value) error) error {
	if len(nodes) == 0 {
		return then(nil)
	}
	st.push(&collectFrame{rest: nodes[1:], env: env, vals: make([]Value, 0, len(nodes)), then: then})
	st.setNode(nodes[0], env)
	return nil
}

// ifFrame picks a branch once the condition is known.
type ifFrame struct {
	then []parser.Node
	els  []parser.Node
	env  *Env
}

func (f *ifFrame) apply(ev *Evaluator, val Value, st *evalState) error {
	if val.Bool() {
		ev.evalBlock(st, f.then, NewEnv(f.env))
	} else {
		ev.evalBlock(st, f.els, NewEnv(f.env))
	}
	return nil
}

type loopPhase int

const (
	phaseCond loopPhase = iota
	phaseBody
	phaseStep
)

// loopFrame drives `while` and `for`. It is also the target of `break`.
type loopFrame struct {
	cond  parser.Node
	step  parser.Node // nil for while
	body  []parser.Node
	env   *Env
	phase loopPhase
}

func (f *loopFrame) apply(ev *Evaluator, val Value, st *evalState) error {
	switch f.phase {
	case phaseCond:
		if !val.Bool() {
			st.env = f.env
			st.deliver(Null)
			return nil
		}
		f.phase = phaseBody
		st.push(f)
		ev.evalBlock(st, f.body, NewEnv(f.env))
	case phaseBody:
		if f.step != nil {
			f.phase = phaseStep
			st.push(f)
			st.setNode(f.step, f.env)
			return nil
		}
		f.start(st)
	case phaseStep:
		f.start(st)
	}
	return nil
}

func (f *loopFrame) start(st *evalState) {
	f.phase = phaseCond
	st.push(f)
	st.setNode(f.cond, f.env)
}

func (ev *Evaluator) unwindReturn(st *evalState, v Value) {
	for len(st.cont) > 0 {
		if cf, ok := st.pop().(*callFrame); ok {
			cf.restore(st)
			break
		}
	}
	st.deliver(v)
}

func (ev *Evaluator) unwindBreak(st *evalState) error {
	for len(st.cont) > 0 {
		f := st.pop()
		switch f := f.(type) {
		case *loopFrame:
			st.env = f.env
			st.deliver(Null)
			return nil
		case *callFrame:
			st.push(f)
			return RangeErrorf("'break' outside of a loop")
		}
	}
	return RangeErrorf("'break' outside of a loop")
}
