package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sergev/sour/driver"
	"github.com/sergev/sour/lang"
	"github.com/sergev/sour/parser"
)

var (
	verbose   bool
	quiet     bool
	colorMode string
	defsPaths []string

	// manifest is the sour.yml found above the working directory, if any.
	manifest *driver.Manifest
)

// errReported means the diagnostics were already printed.
var errReported = errors.New("errors reported")

var rootCmd = &cobra.Command{
	Use:   "sour [file]",
	Short: "Sour - a small statically checked scripting language",
	Long: `Sour checks and runs programs written in the Sour language.

With a file argument it runs the file, without one it starts the REPL.
A sour.yml in the working directory or above configures the project.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadProject,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && (manifest == nil || manifest.Entry == "") {
			return runREPL(cmd, args)
		}
		return runRun(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Colorize output: auto, always, never")
	rootCmd.PersistentFlags().StringSliceVar(&defsPaths, "defs", nil, "Extra definition files to check against")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(astCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadProject picks up sour.yml and settles the colour mode.
func loadProject(cmd *cobra.Command, args []string) error {
	path, err := driver.FindManifest(".")
	if err != nil {
		return err
	}
	if path != "" {
		m, err := driver.LoadManifest(path)
		if err != nil {
			return err
		}
		manifest = m
		if m.Color != "" && !cmd.Flags().Changed("color") {
			colorMode = m.Color
		}
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "using %s\n", path)
		}
	}
	return setColor(colorMode)
}

// setColor switches colour output globally. In auto mode colour is used
// when stdout is a terminal and NO_COLOR is unset.
func setColor(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "", "auto":
		if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		} else {
			color.NoColor = false
		}
	default:
		return fmt.Errorf("invalid --color %q: want auto, always or never", mode)
	}
	return nil
}

// definitions lists the extra definition files from sour.yml and --defs.
func definitions() []string {
	var defs []string
	if manifest != nil {
		defs = append(defs, manifest.DefinitionPaths()...)
	}
	return append(defs, defsPaths...)
}

// styles holds the colour formatters for terminal output.
type styles struct {
	errorLabel *color.Color
	ok         *color.Color
	result     *color.Color
}

func newStyles() *styles {
	return &styles{
		errorLabel: color.New(color.Bold, color.FgRed),
		ok:         color.New(color.FgGreen),
		result:     color.New(color.FgCyan),
	}
}

// diagnostic prints a compile error with its source snippet.
func (s *styles) diagnostic(w io.Writer, e *parser.Error) {
	fmt.Fprintf(w, "%s %s", s.errorLabel.Sprint("error:"), e.Snippet())
}

// failure prints a runtime error with its stack trace.
func (s *styles) failure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", s.errorLabel.Sprint("error:"), describe(err))
}

func describe(err error) string {
	var rerr *lang.RuntimeError
	if errors.As(err, &rerr) {
		return rerr.Trace()
	}
	return err.Error()
}

// report prints err the way the command line shows failures. Diagnostics
// and runtime errors turn into errReported, anything else is returned.
func report(w io.Writer, s *styles, err error) error {
	var list parser.ErrorList
	var perr *parser.Error
	var rerr *lang.RuntimeError
	switch {
	case errors.As(err, &list):
		for _, e := range list {
			s.diagnostic(w, e)
		}
	case errors.As(err, &perr):
		s.diagnostic(w, perr)
	case errors.As(err, &rerr):
		s.failure(w, rerr)
	default:
		return err
	}
	return errReported
}
