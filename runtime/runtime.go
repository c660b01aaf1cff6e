package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/lang"
	"github.com/sergev/sour/parser"
)

// Interpreter runs validated programs against the builtin library. Module
// imports start child interpreters that share its streams.
type Interpreter struct {
	Stdout *lang.Stream
	Stderr *lang.Stream
	Stdin  *lang.Stream

	reg      *check.Registry
	ev       *lang.Evaluator
	env      *lang.Env
	warnings io.Writer
	natives  map[string]lang.NativeFunc
	modules  *moduleTable
}

type moduleTable struct {
	mu      sync.Mutex
	exports map[string]*lang.Env
}

func (t *moduleTable) get(name string) (*lang.Env, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	env, ok := t.exports[name]
	return env, ok
}

func (t *moduleTable) set(name string, env *lang.Env) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exports[name] = env
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithWarnings sets where non-fatal problems, such as a failed import, are
// reported. They are discarded by default.
func WithWarnings(w io.Writer) Option {
	return func(in *Interpreter) {
		in.warnings = w
	}
}

// WithNatives supplies implementations for builtins declared in extra
// definitions. Keys follow the builtin convention: "Class.alias" for
// methods, the bare alias for functions.
func WithNatives(natives map[string]lang.NativeFunc) Option {
	return func(in *Interpreter) {
		for k, fn := range natives {
			in.natives[k] = fn
		}
	}
}

// New builds an interpreter for programs validated against reg. It fails
// when reg declares a builtin that has no native implementation.
func New(reg *check.Registry, opts ...Option) (*Interpreter, error) {
	in := &Interpreter{
		Stdout:   lang.NewStream(),
		Stderr:   lang.NewStream(),
		Stdin:    lang.NewStream(),
		reg:      reg,
		warnings: io.Discard,
		modules:  &moduleTable{exports: make(map[string]*lang.Env)},
	}
	in.natives = in.primitives()
	for _, opt := range opts {
		opt(in)
	}
	in.ev = lang.NewEvaluator()
	in.ev.Importer = in
	if err := in.install(); err != nil {
		return nil, err
	}
	in.env = lang.NewEnv(in.ev.Global)
	return in, nil
}

// install binds every registry declaration to its native implementation.
func (in *Interpreter) install() error {
	var missing []string
	native := func(key, name string) *lang.Native {
		fn, ok := in.natives[key]
		if !ok {
			missing = append(missing, key)
			return nil
		}
		return &lang.Native{Name: name, Fn: fn}
	}

	global := in.ev.Global
	for _, c := range in.reg.Scope.Classes() {
		class := lang.NewClass(c.Name)
		for _, name := range c.MethodNames() {
			for _, fn := range c.Methods(name) {
				if n := native(c.Name+"."+fn.Alias, c.Name+"."+fn.Name); n != nil {
					class.Methods[fn.Alias] = n
				}
			}
		}
		for _, prop := range c.Props {
			get, ok := getters[c.Name+"."+prop.Name]
			if !ok {
				missing = append(missing, c.Name+"."+prop.Name)
				continue
			}
			class.Getters[prop.Name] = get
		}
		class.New = constructors[c.Name]
		if t, ok := valueTypes[c.Name]; ok {
			in.ev.Builtins[t] = class
		}
		global.DefineClass(class)
	}
	for _, fn := range in.reg.Scope.AllFuncs() {
		if n := native(fn.Alias, fn.Name); n != nil {
			global.DefineFunc(fn.Alias, n)
		}
	}
	for _, v := range in.reg.Scope.Vars() {
		val, ok := globals[v.Name]
		if !ok {
			missing = append(missing, v.Name)
			continue
		}
		global.Define(v.Name, val)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("runtime: no native implementation for %s", strings.Join(missing, ", "))
	}
	return nil
}

// child returns an interpreter for an imported module. It shares the
// streams, builtins and module table, and has its own exports.
func (in *Interpreter) child() *Interpreter {
	c := &Interpreter{
		Stdout:   in.Stdout,
		Stderr:   in.Stderr,
		Stdin:    in.Stdin,
		reg:      in.reg,
		warnings: in.warnings,
		natives:  in.natives,
		modules:  in.modules,
	}
	c.ev = &lang.Evaluator{
		Global:   in.ev.Global,
		Builtins: in.ev.Builtins,
		Exports:  lang.NewEnv(nil),
		Importer: c,
	}
	c.env = lang.NewEnv(c.ev.Global)
	return c
}

// AddModule registers a host module. Programs import it by name; its
// declarations must also be known to the registry (check.Registry.DefineModule).
func (in *Interpreter) AddModule(name string, exports *lang.Env) {
	in.modules.set(name, exports)
}

// Exports returns the bindings the program exported so far.
func (in *Interpreter) Exports() *lang.Env {
	return in.ev.Exports
}

// Env returns the top-level scope. It persists across Exec calls.
func (in *Interpreter) Env() *lang.Env {
	return in.env
}

// Exec runs a parsed file in the top-level scope, using the side table
// validation produced for it.
func (in *Interpreter) Exec(file *parser.File, info *check.Info, cont lang.Continuation) {
	in.ev.Exec(file, info, in.env, cont)
}

// Interpret runs a validation result. Results with errors are rejected
// without running.
func (in *Interpreter) Interpret(res *check.Result, cont lang.Continuation) {
	if err := res.Err(); err != nil {
		if cont.Reject != nil {
			cont.Reject(err)
		}
		return
	}
	in.Exec(res.File, res.Info, cont)
}

// Import implements lang.Importer. A module that fails is reported as a
// warning and the import proceeds without its exports.
func (in *Interpreter) Import(n *parser.Import, res *check.Result, done func(*lang.Env, error)) {
	if exports, ok := in.modules.get(res.Path); ok {
		done(exports, nil)
		return
	}
	if res.File == nil {
		done(nil, fmt.Errorf("host module '%s' is not registered", res.Path))
		return
	}
	if err := res.Err(); err != nil {
		in.warnf("import %q failed: %v", n.Path.Value, err)
		done(nil, nil)
		return
	}
	child := in.child()
	child.Exec(res.File, res.Info, lang.Continuation{
		Resolve: func(lang.Value) {
			in.modules.set(res.Path, child.ev.Exports)
			done(child.ev.Exports, nil)
		},
		Reject: func(err error) {
			in.warnf("import %q failed: %s", n.Path.Value, trace(err))
			done(nil, nil)
		},
	})
}

func (in *Interpreter) warnf(format string, args ...interface{}) {
	fmt.Fprintf(in.warnings, "warning: "+format+"\n", args...)
}

func trace(err error) string {
	var rerr *lang.RuntimeError
	if errors.As(err, &rerr) {
		return rerr.Trace()
	}
	return err.Error()
}

// Close closes the three streams.
func (in *Interpreter) Close() {
	in.Stdout.Close()
	in.Stderr.Close()
	in.Stdin.Close()
}

// Stdio connects the interpreter streams to host files for Run.
type Stdio struct {
	In  io.Reader // nil means closed input
	Out io.Writer
	Err io.Writer
}

// Run interprets res and blocks until it finishes or ctx ends. Output is
// copied to stdio as it is produced. The streams are closed on return, so
// an Interpreter runs one program this way.
func (in *Interpreter) Run(ctx context.Context, res *check.Result, stdio Stdio) error {
	pumpCtx, stop := context.WithCancel(context.Background())
	defer stop()
	g, gctx := errgroup.WithContext(pumpCtx)
	g.Go(func() error { return pump(gctx, in.Stdout, stdio.Out) })
	g.Go(func() error { return pump(gctx, in.Stderr, stdio.Err) })
	if stdio.In != nil {
		go feed(stdio.In, in.Stdin)
	} else {
		in.Stdin.End()
	}

	done := make(chan error, 1)
	in.Interpret(res, lang.Continuation{
		Resolve: func(lang.Value) { done <- nil },
		Reject:  func(err error) { done <- err },
	})
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	stop()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	in.Close()
	return err
}

// pump copies a stream to w until ctx ends, then flushes what is left.
func pump(ctx context.Context, s *lang.Stream, w io.Writer) error {
	if w == nil {
		w = io.Discard
	}
	buf := make([]byte, utf8.UTFMax)
	write := func(r rune) error {
		n := utf8.EncodeRune(buf, r)
		_, err := w.Write(buf[:n])
		return err
	}
	for {
		r, err := s.ReadContext(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, lang.ErrStreamClosed) {
				return err
			}
			for _, r := range s.TakeBuffered() {
				if err := write(r); err != nil {
					return err
				}
			}
			return nil
		}
		if err := write(r); err != nil {
			return err
		}
	}
}

// feed copies host input into the stream and ends it at end of input.
func feed(r io.Reader, s *lang.Stream) {
	br := bufio.NewReader(r)
	for {
		c, _, err := br.ReadRune()
		if err != nil {
			s.End()
			return
		}
		if s.Write(c) != nil {
			return
		}
	}
}
