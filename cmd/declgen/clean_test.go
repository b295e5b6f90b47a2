package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearDirectoryIfNotEmpty(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		err := ClearDirectoryIfNotEmpty(filepath.Join(t.TempDir(), "absent"), false, strings.NewReader(""), &bytes.Buffer{})
		assert.NoError(t, err)
	})

	t.Run("empty directory is kept", func(t *testing.T) {
		dir := t.TempDir()
		var out bytes.Buffer
		require.NoError(t, ClearDirectoryIfNotEmpty(dir, false, strings.NewReader(""), &out))
		assert.DirExists(t, dir)
		assert.Empty(t, out.String())
	})

	t.Run("confirmed", func(t *testing.T) {
		dir := filledDir(t)
		var out bytes.Buffer
		require.NoError(t, ClearDirectoryIfNotEmpty(dir, false, strings.NewReader("y\n"), &out))
		assert.NoDirExists(t, dir)
		assert.Contains(t, out.String(), "Proceed? [Y/n]")
	})

	t.Run("declined", func(t *testing.T) {
		dir := filledDir(t)
		err := ClearDirectoryIfNotEmpty(dir, false, strings.NewReader("n\n"), &bytes.Buffer{})
		assert.True(t, errors.Is(err, errNoAgreement))
		assert.FileExists(t, filepath.Join(dir, "Old.cs"))
	})

	t.Run("silent", func(t *testing.T) {
		dir := filledDir(t)
		var out bytes.Buffer
		require.NoError(t, ClearDirectoryIfNotEmpty(dir, true, strings.NewReader(""), &out))
		assert.NoDirExists(t, dir)
		assert.NotContains(t, out.String(), "Proceed")
	})
}

func filledDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Old.cs"), []byte("old"), 0644))
	return dir
}
