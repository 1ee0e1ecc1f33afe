package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/adapters/process"
)

const (
	// InstallModeCI is the reproducible lockfile install.
	InstallModeCI = "ci"
	// InstallModeInstall is the regular install used without a lockfile.
	InstallModeInstall = "install"

	lockfileName = "package-lock.json"

	defaultTimeout = 15 * time.Minute
)

// CommandRunner executes a subprocess and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, cmd process.Command, out chan<- string) (string, error)
}

// Options configures the package manager binaries.
type Options struct {
	NPM     string
	NPX     string
	Timeout time.Duration
}

// Adapter implements ports.BuilderService with npm and npx.
type Adapter struct {
	runner  CommandRunner
	logger  zerolog.Logger
	npm     string
	npx     string
	timeout time.Duration
}

// NewBuilderAdapter creates a builder that shells out through runner.
func NewBuilderAdapter(runner CommandRunner, logger zerolog.Logger, opts Options) *Adapter {
	if opts.NPM == "" {
		opts.NPM = "npm"
	}
	if opts.NPX == "" {
		opts.NPX = "npx"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Adapter{
		runner:  runner,
		logger:  logger.With().Str("component", "builder").Logger(),
		npm:     opts.NPM,
		npx:     opts.NPX,
		timeout: opts.Timeout,
	}
}

// Scaffold creates a Vite + Vue project named slug inside root.
func (a *Adapter) Scaffold(ctx context.Context, root, slug string, out chan<- string) (string, error) {
	a.logger.Info().Str("root", root).Str("slug", slug).Msg("scaffolding project")
	return a.runner.Run(ctx, process.Command{
		Argv:    []string{a.npx, "--yes", "create-vite@latest", slug, "--", "--template", "vue"},
		Dir:     root,
		Timeout: a.timeout,
	}, out)
}

// Install runs `npm ci` when a lockfile is present, `npm install` otherwise.
func (a *Adapter) Install(ctx context.Context, dir string, out chan<- string) (string, string, error) {
	mode := InstallModeInstall
	hasLock, err := fileExists(filepath.Join(dir, lockfileName))
	if err != nil {
		return "", "", err
	}
	if hasLock {
		mode = InstallModeCI
	}

	output, err := a.runner.Run(ctx, process.Command{
		Argv:    []string{a.npm, mode, "--no-audit", "--no-fund"},
		Dir:     dir,
		Timeout: a.timeout,
	}, out)
	return mode, output, err
}

// Bundle runs the production build script.
func (a *Adapter) Bundle(ctx context.Context, dir string, out chan<- string) (string, error) {
	return a.runner.Run(ctx, process.Command{
		Argv:    []string{a.npm, "run", "build"},
		Dir:     dir,
		Timeout: a.timeout,
	}, out)
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}
