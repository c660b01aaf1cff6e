package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sour/lang"
	"github.com/sergev/sour/parser"
	"github.com/sergev/sour/runtime"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		ManifestName: `name: demo
entry: src/main.sour
definitions:
  - defs/host.sour
ignore:
  - build/
color: never
`,
	})

	m, err := LoadManifest(filepath.Join(dir, ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, "never", m.Color)
	assert.Equal(t, []string{"build/"}, m.Ignore)
	assert.Equal(t, filepath.Join(dir, "src", "main.sour"), m.EntryPath())
	assert.Equal(t, []string{filepath.Join(dir, "defs", "host.sour")}, m.DefinitionPaths())
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"Empty", "", "is empty"},
		{"UnknownField", "name: demo\nversion: 1\n", "field version not found"},
		{"Syntax", "name: [demo\n", "manifest: parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, map[string]string{ManifestName: tt.content})
			_, err := LoadManifest(filepath.Join(dir, ManifestName))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestManifestValidation(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		ManifestName: "entry: main.txt\ndefinitions: ['']\ncolor: loud\n",
	})

	_, err := LoadManifest(filepath.Join(dir, ManifestName))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{
		"name must be provided",
		`entry "main.txt" must be a .sour file`,
		"definitions[0] must be a non-empty path",
		`color must be auto, always or never, not "loud"`,
	}, verr.Issues)
	assert.True(t, strings.HasPrefix(err.Error(), "manifest validation failed for "))
}

func TestFindManifest(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		ManifestName:     "name: demo\n",
		"src/lib/a.sour": "",
	})

	path, err := FindManifest(filepath.Join(dir, "src", "lib"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestName), path)

	empty := t.TempDir()
	path, err = FindManifest(empty)
	require.NoError(t, err)
	if path != "" {
		// A manifest above the temp directory belongs to the host.
		assert.NotEqual(t, filepath.Join(empty, ManifestName), path)
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.sour":        "",
		"lib/util.sour":    "",
		"lib/notes.txt":    "",
		"build/gen.sour":   "",
		".cache/x.sour":    "",
		"vendor/skip.sour": "",
		"scratch/tmp.sour": "",
		IgnoreName:         "build/\n# comment\n",
	})

	c := &Checker{Ignore: []string{"scratch/"}}
	files, err := c.Collect(context.Background(), root)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{"lib/util.sour", "main.sour", "vendor/skip.sour"}, rel)
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"good.sour":     `import * from "lib/util.sour"` + "\nprint(twice(2))\n",
		"lib/util.sour": "export func twice(n: byte): byte { return n * 2 }\n",
		"bad.sour":      "print(nope)\n",
	})
	reg, err := NewRegistry(nil)
	require.NoError(t, err)

	c := &Checker{Registry: reg, Jobs: 2}
	reports, err := c.Check(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	byName := make(map[string]*Report)
	for _, r := range reports {
		byName[filepath.Base(r.Path)] = r
	}
	assert.True(t, byName["good.sour"].OK())
	assert.True(t, byName["util.sour"].OK())
	require.False(t, byName["bad.sour"].OK())
	assert.Contains(t, byName["bad.sour"].Errors()[0].Message, "nope")

	files, errs := Summary(reports)
	assert.Equal(t, 3, files)
	assert.Equal(t, 1, errs)
}

func TestCheckMissingPath(t *testing.T) {
	c := &Checker{}
	_, err := c.Check(context.Background(), []string{filepath.Join(t.TempDir(), "none.sour")})
	assert.Error(t, err)
}

func TestNewRegistryDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"host.sour": "// Rings the bell.\nfunc beep(times: byte)\n",
		"main.sour": "beep(3)\n",
	})

	reg, err := NewRegistry([]string{filepath.Join(dir, "host.sour")})
	require.NoError(t, err)
	res, err := Compile(filepath.Join(dir, "main.sour"), reg, false)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	_, err = NewRegistry([]string{filepath.Join(dir, "missing.sour")})
	assert.ErrorContains(t, err, "file does not exist")
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.sour":  "import * from \"greet.sour\"\ngreet(\"sour\")\n",
		"greet.sour": "export func greet(name: string) { print(\"hello, \" + name) }\n",
		"echo.sour":  "var c = _stdin()\nwhile ((c == '\\0').not()) {\n\t_stdout(c)\n\tc = _stdin()\n}\n",
		"bad.sour":   "print(1 + 'a')\n",
		"boom.sour":  "print(1 / 0)\n",
		"old.sour":   "print \"hi\"; print 7\n",
	})

	var out bytes.Buffer
	err := Run(context.Background(), filepath.Join(dir, "main.sour"), RunOptions{Stdio: runtime.Stdio{Out: &out}})
	require.NoError(t, err)
	assert.Equal(t, "hello, sour\n", out.String())

	out.Reset()
	err = Run(context.Background(), filepath.Join(dir, "echo.sour"), RunOptions{
		Stdio: runtime.Stdio{In: strings.NewReader("abc"), Out: &out},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", out.String())

	out.Reset()
	err = Run(context.Background(), filepath.Join(dir, "old.sour"), RunOptions{Legacy: true, Stdio: runtime.Stdio{Out: &out}})
	require.NoError(t, err)
	assert.Equal(t, "hi\n7\n", out.String())

	err = Run(context.Background(), filepath.Join(dir, "bad.sour"), RunOptions{})
	var list parser.ErrorList
	require.True(t, errors.As(err, &list))
	assert.Len(t, list, 1)

	err = Run(context.Background(), filepath.Join(dir, "boom.sour"), RunOptions{})
	var rerr *lang.RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Error(), "Division by zero")
}
