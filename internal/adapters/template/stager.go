package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

var (
	excludedDirs = map[string]bool{
		".git":         true,
		"node_modules": true,
		"dist":         true,
		"build":        true,
		".cache":       true,
	}
	excludedFiles = map[string]bool{
		".gitignore": true,
		".DS_Store":  true,
	}
)

// CopyTemplate recursively copies src into dst, skipping VCS metadata,
// dependency caches, previous build output and ignorable files. With
// overwrite unset, files already present in dst are left alone.
func CopyTemplate(src, dst string, overwrite bool) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() && excludedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if excludedFiles[d.Name()] {
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(path, target, overwrite); err != nil {
			return fmt.Errorf("copy failed at %s: %w", path, err)
		}
		return nil
	})
}

func copyFile(src, dst string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// IsGitSource reports whether a template source should be cloned rather
// than read from the local filesystem.
func IsGitSource(source string) bool {
	switch {
	case strings.HasPrefix(source, "https://"),
		strings.HasPrefix(source, "http://"),
		strings.HasPrefix(source, "ssh://"),
		strings.HasPrefix(source, "git@"):
		return true
	}
	return strings.HasSuffix(source, ".git")
}

// Fetch resolves a template source to a local directory. Git sources are
// shallow-cloned into a temporary directory which cleanup removes; local
// paths are returned unchanged with a no-op cleanup.
func Fetch(ctx context.Context, source string, progress io.Writer) (dir string, cleanup func(), err error) {
	if !IsGitSource(source) {
		info, err := os.Stat(source)
		if err != nil {
			return "", nil, fmt.Errorf("template source: %w", err)
		}
		if !info.IsDir() {
			return "", nil, fmt.Errorf("template source %s is not a directory", source)
		}
		return source, func() {}, nil
	}

	tmpDir, err := os.MkdirTemp("", "lighthouse-template-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup = func() { os.RemoveAll(tmpDir) }

	_, err = git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
		URL:      source,
		Progress: progress,
		Depth:    1,
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone template %s: %w", source, err)
	}
	return tmpDir, cleanup, nil
}
