package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/sergev/sour/check"
	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/runtime"
	"github.com/sergev/sour/vfs"
)

// IgnoreName is the per-project file listing paths the checker skips.
const IgnoreName = ".sourignore"

// NewRegistry loads the builtin library plus the given definition files.
func NewRegistry(definitions []string) (*check.Registry, error) {
	reg, err := runtime.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("builtin definitions: %w", err)
	}
	for _, path := range definitions {
		src, err := vfs.ReadSource(vfs.OpenOS(path))
		if err != nil {
			return nil, err
		}
		if err := reg.Load(src, path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Report is the outcome of checking one file.
type Report struct {
	Path   string
	Result *check.Result // nil when the file could not be read
	Err    error
}

// Errors returns the diagnostics of the file.
func (r *Report) Errors() []*parser.Error {
	if r.Result == nil {
		return nil
	}
	return r.Result.Errors
}

// OK reports whether the file was read and validated cleanly.
func (r *Report) OK() bool {
	return r.Err == nil && len(r.Errors()) == 0
}

// Checker validates many files in parallel against one registry.
type Checker struct {
	Registry *check.Registry
	Ignore   []string // extra gitignore-style patterns
	Jobs     int      // parallel validations, NumCPU when zero
}

// Collect lists the .sour files below root, sorted. Hidden directories are
// skipped, and so is anything matched by root's .sourignore or c.Ignore.
func (c *Checker) Collect(ctx context.Context, root string) ([]string, error) {
	ignore, err := c.loadIgnore(root)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if rel != "." && (isHidden(info.Name()) || ignore.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".sour" || ignore.MatchesPath(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (c *Checker) loadIgnore(root string) (*gitignore.GitIgnore, error) {
	path := filepath.Join(root, IgnoreName)
	if _, err := os.Stat(path); err == nil {
		ignore, err := gitignore.CompileIgnoreFileAndLines(path, c.Ignore...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ignore, nil
	}
	return gitignore.CompileIgnoreLines(c.Ignore...), nil
}

// Check validates the given files and directories. Directories are
// expanded with Collect. Reports come back in path order.
func (c *Checker) Check(ctx context.Context, paths []string) ([]*Report, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := c.Collect(ctx, p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	jobs := c.Jobs
	if jobs < 1 {
		jobs = goruntime.NumCPU()
	}
	reports := make([]*Report, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = c.checkFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *Checker) checkFile(path string) *Report {
	file := vfs.OpenOS(path)
	src, err := vfs.ReadSource(file)
	if err != nil {
		return &Report{Path: path, Err: err}
	}
	return &Report{Path: path, Result: check.Validate(src, file, c.Registry)}
}

// Summary counts the files and diagnostics of a check.
func Summary(reports []*Report) (files, errs int) {
	for _, r := range reports {
		files++
		if r.Err != nil {
			errs++
		}
		errs += len(r.Errors())
	}
	return files, errs
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
