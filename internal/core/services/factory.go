// Package services implements the provisioning pipelines that turn a tenant
// request into a running static front-end container.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
	"github.com/melih/lighthouse-factory/internal/core/ports"
	"github.com/melih/lighthouse-factory/internal/metrics"
)

const (
	PipelineScratch  = "scratch"
	PipelineTemplate = "template"
)

const (
	htmlDir    = "/usr/share/nginx/html"
	stagingDir = "/tmp/distcopy"
)

// Options configures where and how apps are built.
type Options struct {
	WorkspaceRoot  string
	TemplateSource string
	ImagePrefix    string
	PublicHost     string
}

// Deps are the collaborators of a Factory. Metrics may be nil.
type Deps struct {
	Runtime   ports.ContainerService
	Builder   ports.BuilderService
	Templates ports.TemplateService
	Branding  ports.BrandingStore
	Hub       ports.LogPublisher
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// Factory runs the provisioning pipelines. Runs for the same slug are
// serialized; runs for different slugs proceed concurrently.
type Factory struct {
	runtime   ports.ContainerService
	builder   ports.BuilderService
	templates ports.TemplateService
	branding  ports.BrandingStore
	hub       ports.LogPublisher
	logger    zerolog.Logger
	metrics   *metrics.Metrics

	opts  Options
	locks *keyedMutex
}

var _ ports.ProvisioningService = (*Factory)(nil)

// NewFactory creates a Factory.
func NewFactory(deps Deps, opts Options) *Factory {
	if opts.ImagePrefix == "" {
		opts.ImagePrefix = "local/vue-"
	}
	if opts.PublicHost == "" {
		opts.PublicHost = "localhost"
	}
	return &Factory{
		runtime:   deps.Runtime,
		builder:   deps.Builder,
		templates: deps.Templates,
		branding:  deps.Branding,
		hub:       deps.Hub,
		logger:    deps.Logger.With().Str("component", "factory").Logger(),
		metrics:   deps.Metrics,
		opts:      opts,
		locks:     newKeyedMutex(),
	}
}

// target holds the names derived from one request.
type target struct {
	slug      string
	dir       string
	container string
	image     string
}

func (f *Factory) target(name string) target {
	slug := domain.SafeSlug(name)
	return target{
		slug:      slug,
		dir:       filepath.Join(f.opts.WorkspaceRoot, slug),
		container: domain.ContainerName(slug),
		image:     domain.ImageTag(f.opts.ImagePrefix, slug),
	}
}

func (f *Factory) result(t target, port int) domain.Result {
	return domain.Result{
		Image:     t.image,
		Container: t.container,
		URL:       domain.AppURL(f.opts.PublicHost, port),
	}
}

// CreateAndRun scaffolds a new app from scratch, builds its image and
// starts it. It fails with *domain.PreconditionError when the workspace
// already exists. The returned Result carries the log even on failure.
func (f *Factory) CreateAndRun(ctx context.Context, req domain.ProvisionRequest) (domain.Result, error) {
	t := f.target(req.Name)
	unlock := f.locks.Lock(t.slug)
	defer unlock()

	r := f.startRun(PipelineScratch, t.slug, req.StreamID)
	res := f.result(t, req.Port)
	err := f.scratch(ctx, r, t, req.Port)
	res.Log = r.finish(err)
	return res, err
}

func (f *Factory) scratch(ctx context.Context, r *run, t target, port int) error {
	err := r.stage("precondition", func() error {
		if _, err := os.Stat(t.dir); err == nil {
			return &domain.PreconditionError{Path: t.dir, Reason: "workspace already exists"}
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat workspace: %w", err)
		}
		return os.MkdirAll(f.opts.WorkspaceRoot, 0o755)
	})
	if err != nil {
		return err
	}

	if err := r.stage("scaffold", func() error {
		r.emit("create-vite:")
		_, err := f.builder.Scaffold(ctx, f.opts.WorkspaceRoot, t.slug, r.lines)
		return err
	}); err != nil {
		return err
	}

	if err := r.stage("artifacts", func() error {
		return writeArtifacts(t.dir, true)
	}); err != nil {
		return err
	}

	if err := f.install(ctx, r, t); err != nil {
		return err
	}
	if err := f.bundle(ctx, r, t); err != nil {
		return err
	}
	return f.deploy(ctx, r, t, port)
}

// CreateFromTemplate stages the template into the app workspace, applies
// the tenant branding and builds it. An existing container only gets its
// static files replaced; otherwise a new image is built and started.
func (f *Factory) CreateFromTemplate(ctx context.Context, req domain.ProvisionRequest) (domain.Result, error) {
	t := f.target(req.Name)
	unlock := f.locks.Lock(t.slug)
	defer unlock()

	r := f.startRun(PipelineTemplate, t.slug, req.StreamID)
	res := f.result(t, req.Port)
	err := f.fromTemplate(ctx, r, t, req)
	res.Log = r.finish(err)
	return res, err
}

func (f *Factory) fromTemplate(ctx context.Context, r *run, t target, req domain.ProvisionRequest) error {
	if err := r.stage("stage-template", func() error {
		if err := f.templates.Stage(ctx, f.opts.TemplateSource, t.dir); err != nil {
			return err
		}
		r.emit("copy template done")
		return nil
	}); err != nil {
		return err
	}

	var cfg domain.BrandingConfig
	if err := r.stage("branding", func() error {
		var err error
		cfg, err = f.branding.FindBranding(ctx, req.TenantID)
		if errors.Is(err, domain.ErrBrandingNotFound) {
			return &domain.ConfigurationMissingError{TenantID: req.TenantID}
		}
		return err
	}); err != nil {
		return err
	}

	if err := r.stage("patch", func() error {
		if err := f.templates.Patch(t.dir, cfg); err != nil {
			return err
		}
		r.emit("patch ChatComponent.tsx done")
		return nil
	}); err != nil {
		return err
	}

	if err := r.stage("artifacts", func() error {
		return writeArtifacts(t.dir, false)
	}); err != nil {
		return err
	}

	if err := r.stage("relax", func() error {
		return f.templates.Relax(t.dir)
	}); err != nil {
		return err
	}

	if err := f.install(ctx, r, t); err != nil {
		return err
	}
	if err := f.bundle(ctx, r, t); err != nil {
		return err
	}

	if f.runtime.Exists(ctx, t.container) {
		r.emit("container exists, updating static files...")
		return r.stage("update", func() error {
			return f.updateStatic(ctx, r, t)
		})
	}
	return f.deploy(ctx, r, t, req.Port)
}

func (f *Factory) install(ctx context.Context, r *run, t target) error {
	return r.stage("install", func() error {
		r.emit("dependencies:")
		mode, _, err := f.builder.Install(ctx, t.dir, r.lines)
		if err != nil {
			return err
		}
		r.emit("npm %s done", mode)
		return nil
	})
}

func (f *Factory) bundle(ctx context.Context, r *run, t target) error {
	return r.stage("bundle", func() error {
		r.emit("npm run build:")
		_, err := f.builder.Bundle(ctx, t.dir, r.lines)
		return err
	})
}

// deploy builds a fresh image and replaces the container.
func (f *Factory) deploy(ctx context.Context, r *run, t target, port int) error {
	if err := r.stage("image", func() error {
		r.emit("image build:")
		_, err := f.runtime.Build(ctx, t.dir, t.image, r.lines)
		return err
	}); err != nil {
		return err
	}

	if err := r.stage("remove", func() error {
		r.emit("remove old container:")
		_, err := f.runtime.RemoveForce(ctx, t.container, r.lines)
		return err
	}); err != nil {
		return err
	}

	return r.stage("run", func() error {
		r.emit("run container:")
		_, err := f.runtime.RunDetached(ctx, t.container, port, t.image, r.lines)
		return err
	})
}

// updateStatic swaps the served files of a live container for the new
// build without restarting it.
func (f *Factory) updateStatic(ctx context.Context, r *run, t target) error {
	if err := f.runtime.EnsureRunning(ctx, t.container); err != nil {
		return err
	}
	prepare := []string{
		"mkdir -p " + htmlDir,
		"find " + htmlDir + " -mindepth 1 -exec rm -rf {} + || true",
		"rm -rf " + stagingDir + " && mkdir -p " + stagingDir,
	}
	for _, cmd := range prepare {
		if _, err := f.runtime.ExecSafe(ctx, t.container, cmd, r.lines); err != nil {
			return err
		}
	}
	if _, err := f.runtime.CopyTo(ctx, filepath.Join(t.dir, "dist"), t.container, stagingDir, r.lines); err != nil {
		return err
	}
	_, err := f.runtime.ExecSafe(ctx, t.container,
		"cp -a "+stagingDir+"/dist/. "+htmlDir+"/ && rm -rf "+stagingDir, r.lines)
	return err
}

// Remove force-removes the app container. Removing an app that is already
// gone succeeds.
func (f *Factory) Remove(ctx context.Context, name string) error {
	t := f.target(name)
	unlock := f.locks.Lock(t.slug)
	defer unlock()

	if _, err := f.runtime.RemoveForce(ctx, t.container, nil); err != nil {
		return err
	}
	f.logger.Info().Str("slug", t.slug).Str("container", t.container).Msg("app removed")
	return nil
}

// Status reads the live state of the app container.
func (f *Factory) Status(ctx context.Context, name string) (domain.Container, error) {
	return f.runtime.Inspect(ctx, f.target(name).container)
}

// Logs returns the last tail lines of the app container's output.
func (f *Factory) Logs(ctx context.Context, name string, tail int) (string, error) {
	t := f.target(name)
	if !f.runtime.Exists(ctx, t.container) {
		return "", fmt.Errorf("%s: %w", t.container, domain.ErrAppNotFound)
	}
	return f.runtime.Logs(ctx, t.container, tail)
}

// List returns every app container.
func (f *Factory) List(ctx context.Context) ([]domain.Container, error) {
	return f.runtime.List(ctx, domain.ContainerPrefix)
}

// AppURL is the public URL for a published host port.
func (f *Factory) AppURL(port int) string {
	return domain.AppURL(f.opts.PublicHost, port)
}
