package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/driver"
	"github.com/sergev/sour/lang"
	"github.com/sergev/sour/lint"
	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/runtime"
	"github.com/sergev/sour/vfs"
)

// replPath names REPL input in diagnostics.
const replPath = "<repl>"

// session keeps declarations alive across REPL inputs: one validator
// scope and one interpreter environment.
type session struct {
	v      *check.Validator
	in     *runtime.Interpreter
	out    io.Writer
	errOut io.Writer
	styles *styles
}

func newSession(reg *check.Registry, out, errOut io.Writer) (*session, error) {
	in, err := runtime.New(reg, runtime.WithWarnings(errOut))
	if err != nil {
		return nil, err
	}
	// Programs reading input in the REPL see end of input.
	in.Stdin.End()
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &session{
		v:      check.NewValidator(reg, vfs.OpenOS(filepath.Join(wd, replPath))),
		in:     in,
		out:    out,
		errOut: errOut,
		styles: newStyles(),
	}, nil
}

// eval runs one input. It returns false when the input is unfinished and
// more lines are needed; final forces unfinished input to be reported.
func (s *session) eval(src string, final bool) bool {
	file, errs := parser.Parse(src, replPath)
	if parser.AnyIncomplete(errs) && !final {
		return false
	}
	if len(errs) == 0 {
		errs = s.v.CheckAtomic(file)
	}
	if len(errs) > 0 {
		for _, e := range errs {
			s.styles.diagnostic(s.errOut, e)
		}
		return true
	}

	type result struct {
		v   lang.Value
		err error
	}
	done := make(chan result, 1)
	s.in.Exec(file, s.v.Info(), lang.Continuation{
		Resolve: func(v lang.Value) { done <- result{v: v} },
		Reject:  func(err error) { done <- result{err: err} },
	})
	r := <-done
	s.flush()
	if r.err != nil {
		s.styles.failure(s.errOut, r.err)
		return true
	}
	if showsValue(file) && r.v.Type != lang.TypeNull {
		fmt.Fprintln(s.out, s.styles.result.Sprint(r.v.Inspect()))
	}
	return true
}

// flush copies what the program wrote to the session output.
func (s *session) flush() {
	io.WriteString(s.out, string(s.in.Stdout.TakeBuffered()))
	io.WriteString(s.errOut, string(s.in.Stderr.TakeBuffered()))
}

// showsValue reports whether the input ends in an expression whose value
// the REPL echoes.
func showsValue(file *parser.File) bool {
	if len(file.Body) == 0 {
		return false
	}
	switch file.Body[len(file.Body)-1].(type) {
	case *parser.VarDecl, *parser.FuncDecl, *parser.ClassDecl, *parser.Export,
		*parser.Import, *parser.If, *parser.For, *parser.While, *parser.Print,
		*parser.Assign:
		return false
	}
	return true
}

// complete proposes words for liner. pos is a rune offset into line.
func (s *session) complete(line string, pos int) (head string, words []string, tail string) {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}
	index := len(string(runes[:pos]))
	file := &parser.File{Path: replPath, Source: line, Tokens: parser.Tokenize(line)}
	info := check.NewInfo()
	info.Scopes = []check.ScopeSpan{{
		Span:  parser.Span{End: parser.Position{Index: len(line)}},
		Scope: s.v.Scope(),
	}}
	prefix := lint.Prefix(file.Tokens, index)
	seen := make(map[string]bool)
	for _, c := range lint.Complete(&check.Result{File: file, Info: info}, index) {
		if !seen[c.Label] {
			seen[c.Label] = true
			words = append(words, c.Label)
		}
	}
	sort.Strings(words)
	return line[:index-len(prefix)], words, line[index:]
}

func runREPL(cmd *cobra.Command, args []string) error {
	reg, err := driver.NewRegistry(nil)
	if err != nil {
		return err
	}
	s, err := newSession(reg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if !isInteractive() {
		return runBufferedREPL(s, bufio.NewReader(cmd.InOrStdin()))
	}
	return runInteractiveREPL(s)
}

func runBufferedREPL(s *session, reader *bufio.Reader) error {
	var buffer strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read error: %w", err)
		}
		eof := err != nil
		buffer.WriteString(line)
		if eof && strings.TrimSpace(buffer.String()) == "" {
			return nil
		}
		if s.eval(buffer.String(), eof) {
			buffer.Reset()
		}
		if eof {
			return nil
		}
	}
}

func runInteractiveREPL(s *session) error {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)
	state.SetWordCompleter(s.complete)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	if !quiet {
		fmt.Fprintf(s.out, "Sour %s. Press Ctrl-D to exit.\n", version)
	}
	var buffer strings.Builder

	for {
		prompt := "sour> "
		if buffer.Len() > 0 {
			prompt = "..... "
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Fprintln(s.out)
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(s.out)
				return nil
			default:
				return fmt.Errorf("read error: %w", err)
			}
		}
		buffer.WriteString(input)
		buffer.WriteString("\n")

		src := buffer.String()
		if !s.eval(src, false) {
			continue
		}
		buffer.Reset()
		if trimmed := strings.TrimSpace(src); trimmed != "" {
			state.AppendHistory(trimmed)
		}
	}
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".sour_history")
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
