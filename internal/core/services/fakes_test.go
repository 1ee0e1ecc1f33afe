package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

type fakeRuntime struct {
	mu      sync.Mutex
	calls   []string
	exists  bool
	running bool
	failOn  map[string]error
}

func (r *fakeRuntime) record(call string, out chan<- string) error {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	err := r.failOn[call]
	r.mu.Unlock()
	if out != nil {
		out <- call + " output"
	}
	return err
}

func (r *fakeRuntime) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRuntime) Exists(_ context.Context, name string) bool {
	_ = r.record("exists "+name, nil)
	return r.exists
}

func (r *fakeRuntime) IsRunning(_ context.Context, name string) (bool, error) {
	return r.running, r.record("running "+name, nil)
}

func (r *fakeRuntime) EnsureRunning(_ context.Context, name string) error {
	return r.record("ensure "+name, nil)
}

func (r *fakeRuntime) Build(_ context.Context, dir, image string, out chan<- string) (string, error) {
	return "", r.record("build "+image, out)
}

func (r *fakeRuntime) RunDetached(_ context.Context, name string, hostPort int, image string, out chan<- string) (string, error) {
	return "", r.record(fmt.Sprintf("run %s %d %s", name, hostPort, image), out)
}

func (r *fakeRuntime) RemoveForce(_ context.Context, name string, out chan<- string) (string, error) {
	return "", r.record("rm "+name, out)
}

func (r *fakeRuntime) CopyTo(_ context.Context, src, name, dst string, out chan<- string) (string, error) {
	return "", r.record(fmt.Sprintf("cp %s %s:%s", filepath.Base(src), name, dst), out)
}

func (r *fakeRuntime) ExecSafe(_ context.Context, name, cmd string, out chan<- string) (string, error) {
	return "", r.record("exec "+cmd, out)
}

func (r *fakeRuntime) Inspect(_ context.Context, name string) (domain.Container, error) {
	if !r.exists {
		return domain.Container{}, domain.ErrAppNotFound
	}
	return domain.Container{Name: name, State: "running", Running: true, HostPort: 9100}, nil
}

func (r *fakeRuntime) List(_ context.Context, prefix string) ([]domain.Container, error) {
	_ = r.record("ps "+prefix, nil)
	return []domain.Container{{Name: prefix + "acme-corp"}}, nil
}

func (r *fakeRuntime) Logs(_ context.Context, name string, tail int) (string, error) {
	return fmt.Sprintf("%s last %d", name, tail), r.record("logs "+name, nil)
}

type fakeBuilder struct {
	mu         sync.Mutex
	calls      []string
	installErr error
}

func (b *fakeBuilder) record(call string, out chan<- string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
	out <- call + " output"
}

func (b *fakeBuilder) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBuilder) Scaffold(_ context.Context, root, slug string, out chan<- string) (string, error) {
	b.record("scaffold "+slug, out)
	return "", os.MkdirAll(filepath.Join(root, slug), 0o755)
}

func (b *fakeBuilder) Install(_ context.Context, dir string, out chan<- string) (string, string, error) {
	b.record("install", out)
	return "ci", "", b.installErr
}

func (b *fakeBuilder) Bundle(_ context.Context, dir string, out chan<- string) (string, error) {
	b.record("bundle", out)
	return "", nil
}

type fakeTemplates struct {
	patched domain.BrandingConfig
	relaxed bool
}

func (t *fakeTemplates) Stage(_ context.Context, source, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, "Dockerfile"), []byte("FROM custom\n"), 0o644)
}

func (t *fakeTemplates) Patch(dir string, cfg domain.BrandingConfig) error {
	t.patched = cfg
	return nil
}

func (t *fakeTemplates) Relax(dir string) error {
	t.relaxed = true
	return nil
}

type fakeBranding map[string]domain.BrandingConfig

func (b fakeBranding) FindBranding(_ context.Context, tenantID string) (domain.BrandingConfig, error) {
	cfg, ok := b[tenantID]
	if !ok {
		return domain.BrandingConfig{}, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrBrandingNotFound)
	}
	return cfg, nil
}

type recordingHub struct {
	mu     sync.Mutex
	lines  map[string][]string
	closed map[string]bool
}

func newRecordingHub() *recordingHub {
	return &recordingHub{lines: map[string][]string{}, closed: map[string]bool{}}
}

func (h *recordingHub) Send(streamID, line string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed[streamID] {
		return
	}
	h.lines[streamID] = append(h.lines[streamID], line)
}

func (h *recordingHub) Close(streamID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed[streamID] = true
}

func (h *recordingHub) Lines(streamID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines[streamID]...)
}

func (h *recordingHub) Closed(streamID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed[streamID]
}
