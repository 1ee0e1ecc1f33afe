package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func newTemplateTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "package.json"), `{"name":"chat"}`)
	writeFile(t, filepath.Join(src, "src", "App.css"), "body{}")
	writeFile(t, filepath.Join(src, "src", "components", "ChatComponent.tsx"), "export {}")
	writeFile(t, filepath.Join(src, ".git", "HEAD"), "ref: refs/heads/main")
	writeFile(t, filepath.Join(src, "node_modules", "vue", "index.js"), "x")
	writeFile(t, filepath.Join(src, "dist", "index.html"), "old")
	writeFile(t, filepath.Join(src, "packages", "ui", "build", "out.js"), "x")
	writeFile(t, filepath.Join(src, ".cache", "c"), "x")
	writeFile(t, filepath.Join(src, ".gitignore"), "node_modules")
	writeFile(t, filepath.Join(src, "src", ".DS_Store"), "x")
	return src
}

func TestCopyTemplate_ExcludesArtifacts(t *testing.T) {
	src := newTemplateTree(t)
	dst := filepath.Join(t.TempDir(), "app")

	require.NoError(t, CopyTemplate(src, dst, true))

	assert.Equal(t, `{"name":"chat"}`, readFile(t, filepath.Join(dst, "package.json")))
	assert.Equal(t, "body{}", readFile(t, filepath.Join(dst, "src", "App.css")))
	assert.FileExists(t, filepath.Join(dst, "src", "components", "ChatComponent.tsx"))
	assert.DirExists(t, filepath.Join(dst, "packages", "ui"))

	for _, excluded := range []string{
		".git", "node_modules", "dist", ".cache", ".gitignore",
		filepath.Join("src", ".DS_Store"),
		filepath.Join("packages", "ui", "build"),
	} {
		assert.NoFileExists(t, filepath.Join(dst, excluded))
		assert.NoDirExists(t, filepath.Join(dst, excluded))
	}
}

func TestCopyTemplate_OverwriteReplaces(t *testing.T) {
	src := newTemplateTree(t)
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "package.json"), "local edit")

	require.NoError(t, CopyTemplate(src, dst, true))
	assert.Equal(t, `{"name":"chat"}`, readFile(t, filepath.Join(dst, "package.json")))
}

func TestCopyTemplate_FirstWriteWins(t *testing.T) {
	src := newTemplateTree(t)
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "package.json"), "local edit")

	require.NoError(t, CopyTemplate(src, dst, false))
	assert.Equal(t, "local edit", readFile(t, filepath.Join(dst, "package.json")))
	assert.Equal(t, "body{}", readFile(t, filepath.Join(dst, "src", "App.css")))
}

func TestCopyTemplate_Idempotent(t *testing.T) {
	src := newTemplateTree(t)
	dst := t.TempDir()

	require.NoError(t, CopyTemplate(src, dst, true))
	require.NoError(t, CopyTemplate(src, dst, true))
	assert.Equal(t, "body{}", readFile(t, filepath.Join(dst, "src", "App.css")))
}

func TestCopyTemplate_PreservesMode(t *testing.T) {
	src := t.TempDir()
	script := filepath.Join(src, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))
	dst := t.TempDir()

	require.NoError(t, CopyTemplate(src, dst, true))
	info, err := os.Stat(filepath.Join(dst, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestIsGitSource(t *testing.T) {
	assert.True(t, IsGitSource("https://github.com/acme/chat-template"))
	assert.True(t, IsGitSource("git@github.com:acme/chat-template.git"))
	assert.True(t, IsGitSource("ssh://git@host/repo"))
	assert.True(t, IsGitSource("/srv/templates/chat.git"))
	assert.False(t, IsGitSource("/srv/templates/chat-app"))
	assert.False(t, IsGitSource(`C:\templates\chat-app`))
}

func TestFetch_LocalDirectory(t *testing.T) {
	src := t.TempDir()

	dir, cleanup, err := Fetch(context.Background(), src, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, src, dir)
	assert.DirExists(t, src)
}

func TestFetch_MissingLocalDirectory(t *testing.T) {
	_, _, err := Fetch(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}
