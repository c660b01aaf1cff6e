package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	goruntime "runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sergev/sour/driver"
	"github.com/sergev/sour/lint"
	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/runtime"
	"github.com/sergev/sour/sexpr"
	"github.com/sergev/sour/spantext"
	"github.com/sergev/sour/vfs"
)

var (
	version = "dev"
	commit  = "unknown"
)

var (
	runLegacy     bool
	astLegacy     bool
	highlightHTML bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Check and run a program",
	Long:  "Check a program and run it. Without a file the entry from sour.yml is used.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check files and directories for errors",
	Long:  "Validate every .sour file below the given paths, honouring .sourignore",
	RunE:  runCheck,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

var highlightCmd = &cobra.Command{
	Use:   "highlight <file>",
	Short: "Print a file with syntax highlighting",
	Args:  cobra.ExactArgs(1),
	RunE:  runHighlight,
}

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Print the syntax tree of a file as s-expressions",
	Args:  cobra.ExactArgs(1),
	RunE:  runAST,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func init() {
	runCmd.Flags().BoolVar(&runLegacy, "legacy", false, "Parse the print-only dialect")
	astCmd.Flags().BoolVar(&astLegacy, "legacy", false, "Parse the print-only dialect")
	highlightCmd.Flags().BoolVar(&highlightHTML, "html", false, "Emit HTML spans instead of terminal colours")
}

func runRun(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else if manifest != nil {
		path = manifest.EntryPath()
	}
	if path == "" {
		return fmt.Errorf("no file to run and no entry in %s", driver.ManifestName)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	s := newStyles()
	err := driver.Run(ctx, path, driver.RunOptions{
		Stdio: runtime.Stdio{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		},
		Warnings: warnings(cmd),
		Legacy:   runLegacy,
	})
	if err != nil {
		return report(cmd.ErrOrStderr(), s, err)
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		if manifest != nil {
			paths = []string{manifest.Dir}
		} else {
			paths = []string{"."}
		}
	}
	reg, err := driver.NewRegistry(definitions())
	if err != nil {
		return report(cmd.ErrOrStderr(), newStyles(), err)
	}
	c := &driver.Checker{Registry: reg}
	if manifest != nil {
		c.Ignore = manifest.Ignore
	}
	reports, err := c.Check(commandContext(cmd), paths)
	if err != nil {
		return err
	}

	s := newStyles()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	for _, r := range reports {
		switch {
		case r.Err != nil:
			fmt.Fprintf(errOut, "%s %v\n", s.errorLabel.Sprint("error:"), r.Err)
		case !r.OK():
			for _, e := range r.Errors() {
				s.diagnostic(errOut, e)
			}
		case verbose:
			fmt.Fprintf(out, "%s %s\n", s.ok.Sprint("ok"), r.Path)
		}
	}
	files, errs := driver.Summary(reports)
	if !quiet {
		summary := fmt.Sprintf("checked %d files, %d errors", files, errs)
		if errs == 0 {
			summary = s.ok.Sprint(summary)
		}
		fmt.Fprintln(out, summary)
	}
	if errs > 0 {
		return errReported
	}
	return nil
}

// palette maps highlight classes to terminal colours.
var palette = map[string]*color.Color{
	lint.ClassKeyword:   color.New(color.FgMagenta, color.Bold),
	lint.ClassNumber:    color.New(color.FgCyan),
	lint.ClassString:    color.New(color.FgGreen),
	lint.ClassComment:   color.New(color.FgHiBlack),
	lint.ClassOperator:  color.New(color.FgYellow),
	lint.ClassFunction:  color.New(color.FgBlue),
	lint.ClassType:      color.New(color.FgHiCyan),
	lint.ClassProperty:  color.New(color.FgCyan),
	lint.ClassParameter: color.New(color.Italic),
	lint.ClassUnused:    color.New(color.Faint),
}

var errorMark = color.New(color.Underline, color.FgRed)

func runHighlight(cmd *cobra.Command, args []string) error {
	reg, err := driver.NewRegistry(definitions())
	if err != nil {
		return report(cmd.ErrOrStderr(), newStyles(), err)
	}
	res, err := driver.Compile(args[0], reg, false)
	if err != nil {
		return err
	}
	text := spantext.New(res.File.Source)
	lint.Highlight(res, text)

	out := cmd.OutOrStdout()
	if highlightHTML {
		fmt.Fprintln(out, text.String())
		return nil
	}
	fmt.Fprint(out, text.Render(func(chunk string, style spantext.Style) string {
		if c, ok := palette[style.Class]; ok {
			chunk = c.Sprint(chunk)
		}
		if style.Error {
			chunk = errorMark.Sprint(chunk)
		}
		return chunk
	}))
	return nil
}

func runAST(cmd *cobra.Command, args []string) error {
	file := vfs.OpenOS(args[0])
	src, err := vfs.ReadSource(file)
	if err != nil {
		return err
	}
	var (
		ast  *parser.File
		errs []*parser.Error
	)
	if astLegacy {
		ast, errs = parser.ParseLegacy(src, file.Path())
	} else {
		ast, errs = parser.Parse(src, file.Path())
	}
	fmt.Fprint(cmd.OutOrStdout(), sexpr.FormatFile(ast))
	if len(errs) > 0 {
		return report(cmd.ErrOrStderr(), newStyles(), parser.ErrorList(errs))
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sour v%s\n", version)
	fmt.Fprintf(out, "Commit: %s\n", commit)
	fmt.Fprintf(out, "Go version: %s\n", goruntime.Version())
	fmt.Fprintf(out, "OS/Arch: %s/%s\n", goruntime.GOOS, goruntime.GOARCH)
	return nil
}

// warnings is where interpreter warnings go; --quiet drops them.
func warnings(cmd *cobra.Command) io.Writer {
	if quiet {
		return nil
	}
	return cmd.ErrOrStderr()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
