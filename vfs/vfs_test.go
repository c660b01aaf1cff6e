package vfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapFSResolvesRelativePaths(t *testing.T) {
	fs := MapFS{
		"main.sour":     "import * from \"lib/util\"",
		"lib/util.sour": "export func f() {}",
	}
	main := fs.Open("main.sour")
	require.True(t, main.Exists())

	util := main.Parent().Child("lib/util.sour")
	assert.Equal(t, "lib/util.sour", util.Path())
	assert.True(t, util.Exists())

	back := util.Parent().Child("../main.sour")
	assert.Equal(t, "main.sour", back.Path())

	src, err := util.Read()
	require.NoError(t, err)
	assert.Equal(t, "export func f() {}", src)

	missing := main.Parent().Child("nope.sour")
	assert.False(t, missing.Exists())
	_, err = ReadSource(missing)
	assert.EqualError(t, err, "nope.sour: file does not exist")

	assert.Equal(t, []string{"lib/util.sour", "main.sour"}, fs.Paths())
}

func TestOSFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "a.sour"), []byte("var x = 1"), 0o644))

	main := OpenOS(filepath.Join(dir, "main.sour"))
	assert.False(t, main.Exists())

	a := main.Parent().Child("lib/a.sour")
	assert.True(t, a.Exists())
	src, err := ReadSource(a)
	require.NoError(t, err)
	assert.Equal(t, "var x = 1", src)
	assert.Equal(t, filepath.Join(dir, "lib", "a.sour"), a.Path())

	assert.False(t, main.Parent().Child("lib").Exists(), "directories are not files")
}
