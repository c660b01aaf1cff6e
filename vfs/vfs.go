// Package vfs provides the file handles the validator and interpreter use to
// resolve imports. Handles are path-based and never cache content.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// File is a handle to a source file. Handles may refer to files that do not
// exist yet; Exists reports whether reading would succeed.
type File interface {
	Path() string
	Read() (string, error)
	Exists() bool
	Parent() Dir
}

// Dir is a directory that can resolve relative paths.
type Dir interface {
	Path() string
	Child(rel string) File
}

// OSFile is a File backed by the local filesystem.
type OSFile struct {
	path string
}

// OpenOS returns a handle for path, made absolute when possible.
func OpenOS(p string) *OSFile {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return &OSFile{path: filepath.Clean(p)}
}

func (f *OSFile) Path() string { return f.path }

func (f *OSFile) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *OSFile) Exists() bool {
	info, err := os.Stat(f.path)
	return err == nil && !info.IsDir()
}

func (f *OSFile) Parent() Dir {
	return osDir(filepath.Dir(f.path))
}

type osDir string

func (d osDir) Path() string { return string(d) }

func (d osDir) Child(rel string) File {
	if filepath.IsAbs(rel) {
		return OpenOS(rel)
	}
	return OpenOS(filepath.Join(string(d), filepath.FromSlash(rel)))
}

// MapFS is an in-memory tree of source files keyed by slash-separated paths.
type MapFS map[string]string

// Open returns a handle for name inside the map.
func (m MapFS) Open(name string) File {
	return &mapFile{fs: m, path: cleanSlash(name)}
}

// Paths lists every file in lexical order.
func (m MapFS) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, cleanSlash(p))
	}
	sort.Strings(paths)
	return paths
}

func cleanSlash(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

type mapFile struct {
	fs   MapFS
	path string
}

func (f *mapFile) Path() string { return f.path }

func (f *mapFile) lookup() (string, bool) {
	if src, ok := f.fs[f.path]; ok {
		return src, true
	}
	for k, src := range f.fs {
		if cleanSlash(k) == f.path {
			return src, true
		}
	}
	return "", false
}

func (f *mapFile) Read() (string, error) {
	src, ok := f.lookup()
	if !ok {
		return "", &fs.PathError{Op: "read", Path: f.path, Err: fs.ErrNotExist}
	}
	return src, nil
}

func (f *mapFile) Exists() bool {
	_, ok := f.lookup()
	return ok
}

func (f *mapFile) Parent() Dir {
	return mapDir{fs: f.fs, path: path.Dir(f.path)}
}

type mapDir struct {
	fs   MapFS
	path string
}

func (d mapDir) Path() string { return d.path }

func (d mapDir) Child(rel string) File {
	if strings.HasPrefix(rel, "/") {
		return d.fs.Open(rel)
	}
	return d.fs.Open(path.Join(d.path, rel))
}

// ReadSource reads f, wrapping failures with the file path.
func ReadSource(f File) (string, error) {
	src, err := f.Read()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: file does not exist", f.Path())
		}
		return "", fmt.Errorf("%s: %w", f.Path(), err)
	}
	return src, nil
}
