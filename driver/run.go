package driver

import (
	"context"
	"io"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/runtime"
	"github.com/sergev/sour/vfs"
)

// RunOptions configures Run.
type RunOptions struct {
	Stdio    runtime.Stdio
	Warnings io.Writer // nil discards warnings
	Legacy   bool      // parse the print-only dialect
}

// Compile reads and validates the file at path. Read failures are returned
// as errors; diagnostics are left in the result.
func Compile(path string, reg *check.Registry, legacy bool) (*check.Result, error) {
	file := vfs.OpenOS(path)
	src, err := vfs.ReadSource(file)
	if err != nil {
		return nil, err
	}
	if !legacy {
		return check.Validate(src, file, reg), nil
	}
	v := check.NewValidator(reg, file)
	ast, errs := parser.ParseLegacy(src, file.Path())
	errs = append(errs, v.Check(ast)...)
	return &check.Result{File: ast, Errors: errs, Exports: v.Exports(), Info: v.Info(), Path: file.Path()}, nil
}

// Run validates and interprets the program at path against the builtin
// library. Diagnostics come back as a parser.ErrorList, runtime failures as
// a *lang.RuntimeError.
func Run(ctx context.Context, path string, opts RunOptions) error {
	reg, err := runtime.NewRegistry()
	if err != nil {
		return err
	}
	res, err := Compile(path, reg, opts.Legacy)
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}
	var ropts []runtime.Option
	if opts.Warnings != nil {
		ropts = append(ropts, runtime.WithWarnings(opts.Warnings))
	}
	in, err := runtime.New(reg, ropts...)
	if err != nil {
		return err
	}
	return in.Run(ctx, res, opts.Stdio)
}
