package builder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/lighthouse-factory/internal/adapters/process"
)

type recordingRunner struct {
	calls []process.Command
}

func (r *recordingRunner) Run(_ context.Context, cmd process.Command, out chan<- string) (string, error) {
	r.calls = append(r.calls, cmd)
	if out != nil {
		out <- "ran " + cmd.Argv[1]
	}
	return "ok\n", nil
}

func TestInstall_UsesCIWithLockfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package-lock.json"), []byte("{}"), 0o644))
	r := &recordingRunner{}

	mode, out, err := NewBuilderAdapter(r, zerolog.Nop(), Options{}).Install(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, InstallModeCI, mode)
	assert.Equal(t, "ok\n", out)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "npm ci --no-audit --no-fund", strings.Join(r.calls[0].Argv, " "))
	assert.Equal(t, dir, r.calls[0].Dir)
}

func TestInstall_RegularWithoutLockfile(t *testing.T) {
	dir := t.TempDir()
	r := &recordingRunner{}

	mode, _, err := NewBuilderAdapter(r, zerolog.Nop(), Options{}).Install(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, InstallModeInstall, mode)
	assert.Equal(t, "npm install --no-audit --no-fund", strings.Join(r.calls[0].Argv, " "))
}

func TestBundle(t *testing.T) {
	r := &recordingRunner{}
	lines := make(chan string, 1)

	_, err := NewBuilderAdapter(r, zerolog.Nop(), Options{NPM: "npm.cmd"}).Bundle(context.Background(), "/w/app", lines)
	require.NoError(t, err)
	assert.Equal(t, "npm.cmd run build", strings.Join(r.calls[0].Argv, " "))
	assert.Equal(t, defaultTimeout, r.calls[0].Timeout)
	assert.Equal(t, "ran run", <-lines)
}

func TestScaffold(t *testing.T) {
	r := &recordingRunner{}

	_, err := NewBuilderAdapter(r, zerolog.Nop(), Options{}).Scaffold(context.Background(), "/w", "acme-corp", nil)
	require.NoError(t, err)
	assert.Equal(t, "npx --yes create-vite@latest acme-corp -- --template vue", strings.Join(r.calls[0].Argv, " "))
	assert.Equal(t, "/w", r.calls[0].Dir)
}
