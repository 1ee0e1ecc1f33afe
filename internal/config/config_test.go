package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_LISTEN_ADDR", "LOG_LEVEL", "WORKSPACE_ROOT", "IMAGE_PREFIX", "BRANDING_BACKEND", "BUILD_TIMEOUT"} {
		os.Unsetenv(key)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "local/vue-", cfg.ImagePrefix)
	assert.Equal(t, "postgres", cfg.BrandingBackend)
	assert.Equal(t, 15*time.Minute, cfg.BuildTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":8080"
workspace_root: /srv/apps
branding_backend: file
branding_file: /etc/lighthouse/branding.yaml
build_timeout: 20m
`), 0o644))
	t.Setenv("HTTP_LISTEN_ADDR", ":9090")
	t.Setenv("CONTAINER_RUNTIME", "podman")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/srv/apps", cfg.WorkspaceRoot)
	assert.Equal(t, "podman", cfg.RuntimeBinary)
	assert.Equal(t, "file", cfg.BrandingBackend)
	assert.Equal(t, 20*time.Minute, cfg.BuildTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("PROCESS_TIMEOUT", "soon")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROCESS_TIMEOUT")
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := Default()
	cfg.DatabaseURL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL")

	cfg.DatabaseURL = "postgres://localhost/lighthouse"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.BrandingBackend = "redis"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BrandingBackend")
}
