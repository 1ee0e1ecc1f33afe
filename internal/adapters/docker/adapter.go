package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/adapters/process"
	"github.com/melih/lighthouse-factory/internal/core/domain"
)

const (
	// ContainerPort is the port the nginx image listens on.
	ContainerPort = 80

	defaultMidTimeout  = 5 * time.Minute
	defaultLongTimeout = 15 * time.Minute
)

// shellCandidates are tried in order by ExecSafe.
var shellCandidates = []string{"/bin/sh", "/bin/ash", "/bin/bash"}

// CommandRunner executes a subprocess and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, cmd process.Command, out chan<- string) (string, error)
}

// Options configures the Adapter.
type Options struct {
	// Binary is the Docker-compatible CLI, e.g. "docker" or "podman".
	Binary      string
	MidTimeout  time.Duration
	LongTimeout time.Duration
}

// Adapter implements ports.ContainerService by driving the container
// runtime CLI. There is no daemon socket or SDK client involved; the Engine
// API types are only used to decode `inspect` output.
type Adapter struct {
	runner CommandRunner
	logger zerolog.Logger
	bin    string
	mid    time.Duration
	long   time.Duration
}

// NewAdapter creates a new CLI-backed container adapter.
func NewAdapter(runner CommandRunner, logger zerolog.Logger, opts Options) *Adapter {
	if opts.Binary == "" {
		opts.Binary = "docker"
	}
	if opts.MidTimeout <= 0 {
		opts.MidTimeout = defaultMidTimeout
	}
	if opts.LongTimeout <= 0 {
		opts.LongTimeout = defaultLongTimeout
	}
	return &Adapter{
		runner: runner,
		logger: logger.With().Str("component", "docker").Logger(),
		bin:    opts.Binary,
		mid:    opts.MidTimeout,
		long:   opts.LongTimeout,
	}
}

func (a *Adapter) run(ctx context.Context, timeout time.Duration, ignoreExit bool, out chan<- string, args ...string) (string, error) {
	argv := append([]string{a.bin}, args...)
	return a.runner.Run(ctx, process.Command{
		Argv:              argv,
		Timeout:           timeout,
		IgnoreNonZeroExit: ignoreExit,
	}, out)
}

// Exists reports whether the runtime knows a container by that name.
// Any inspect failure counts as absence.
func (a *Adapter) Exists(ctx context.Context, name string) bool {
	_, err := a.run(ctx, a.mid, false, nil, "inspect", name)
	return err == nil
}

// IsRunning reports the container's running state.
func (a *Adapter) IsRunning(ctx context.Context, name string) (bool, error) {
	out, err := a.run(ctx, a.mid, false, nil, "inspect", "-f", "{{.State.Running}}", name)
	if err != nil {
		return false, fmt.Errorf("inspect %s: %w", name, err)
	}
	return strings.EqualFold(strings.TrimSpace(out), "true"), nil
}

// EnsureRunning starts the container unless it already runs.
func (a *Adapter) EnsureRunning(ctx context.Context, name string) error {
	running, err := a.IsRunning(ctx, name)
	if err != nil {
		return err
	}
	if running {
		return nil
	}
	if _, err := a.run(ctx, a.mid, false, nil, "start", name); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	a.logger.Info().Str("container", name).Msg("container started")
	return nil
}

// Build builds an image from dir, always bypassing the layer cache.
func (a *Adapter) Build(ctx context.Context, dir, image string, out chan<- string) (string, error) {
	return a.runner.Run(ctx, process.Command{
		Argv:    []string{a.bin, "build", "--no-cache", "--progress=plain", "-t", image, "."},
		Dir:     dir,
		Timeout: a.long,
	}, out)
}

// RunDetached starts a new named container publishing hostPort on port 80.
func (a *Adapter) RunDetached(ctx context.Context, name string, hostPort int, image string, out chan<- string) (string, error) {
	mapping := fmt.Sprintf("%d:%d", hostPort, ContainerPort)
	return a.run(ctx, a.mid, false, out, "run", "-d", "--name", name, "-p", mapping, image)
}

// RemoveForce removes the container. A missing container is not an error.
func (a *Adapter) RemoveForce(ctx context.Context, name string, out chan<- string) (string, error) {
	return a.run(ctx, a.mid, true, out, "rm", "-f", name)
}

// CopyTo copies a local path into a container.
func (a *Adapter) CopyTo(ctx context.Context, src, name, dst string, out chan<- string) (string, error) {
	return a.run(ctx, a.long, false, out, "cp", src, name+":"+dst)
}

// ExecSafe runs cmd through the first shell the container actually has.
func (a *Adapter) ExecSafe(ctx context.Context, name, cmd string, out chan<- string) (string, error) {
	return a.exec(ctx, name, a.pickShell(ctx, name), cmd, out)
}

func (a *Adapter) exec(ctx context.Context, name, shell, cmd string, out chan<- string) (string, error) {
	return a.run(ctx, a.mid, false, out, "exec", name, shell, "-lc", cmd)
}

func (a *Adapter) pickShell(ctx context.Context, name string) string {
	for _, sh := range shellCandidates {
		if _, err := a.exec(ctx, name, sh, "echo ok", nil); err == nil {
			return sh
		}
	}
	a.logger.Warn().Str("container", name).Msg("no shell answered, falling back to /bin/sh")
	return shellCandidates[0]
}

// Inspect returns the live state of a container.
func (a *Adapter) Inspect(ctx context.Context, name string) (domain.Container, error) {
	containers, err := a.inspect(ctx, name)
	if err != nil {
		return domain.Container{}, err
	}
	if len(containers) == 0 {
		return domain.Container{}, fmt.Errorf("%s: %w", name, domain.ErrAppNotFound)
	}
	return containers[0], nil
}

// List returns every container whose name contains prefix.
func (a *Adapter) List(ctx context.Context, prefix string) ([]domain.Container, error) {
	out, err := a.run(ctx, a.mid, false, nil, "ps", "-a", "--filter", "name="+prefix, "--format", "{{.Names}}")
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	names := strings.Fields(out)
	if len(names) == 0 {
		return []domain.Container{}, nil
	}
	return a.inspect(ctx, names...)
}

// Logs returns the last tail lines of the container's output.
func (a *Adapter) Logs(ctx context.Context, name string, tail int) (string, error) {
	if !a.Exists(ctx, name) {
		return "", fmt.Errorf("%s: %w", name, domain.ErrAppNotFound)
	}
	args := []string{"logs"}
	if tail > 0 {
		args = append(args, "--tail", strconv.Itoa(tail))
	}
	args = append(args, name)
	return a.run(ctx, a.mid, false, nil, args...)
}

func (a *Adapter) inspect(ctx context.Context, names ...string) ([]domain.Container, error) {
	out, err := a.run(ctx, a.mid, false, nil, append([]string{"inspect"}, names...)...)
	if err != nil {
		if len(names) == 1 {
			return nil, fmt.Errorf("%s: %w", names[0], domain.ErrAppNotFound)
		}
		return nil, fmt.Errorf("inspect containers: %w", err)
	}
	return decodeInspect(out)
}

// decodeInspect converts the JSON array printed by `inspect`.
func decodeInspect(raw string) ([]domain.Container, error) {
	var details []types.ContainerJSON
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return nil, fmt.Errorf("decode inspect output: %w", err)
	}

	result := make([]domain.Container, 0, len(details))
	for _, d := range details {
		if d.ContainerJSONBase == nil {
			continue
		}
		c := domain.Container{
			ID:   shortID(d.ID),
			Name: strings.TrimPrefix(d.Name, "/"),
		}
		if d.Config != nil {
			c.Image = d.Config.Image
		}
		if d.State != nil {
			c.State = d.State.Status
			c.Running = d.State.Running
		}
		if d.NetworkSettings != nil {
			c.HostPort = hostPort(d.NetworkSettings.Ports)
		}
		if c.HostPort == 0 && d.HostConfig != nil {
			c.HostPort = hostPort(d.HostConfig.PortBindings)
		}
		result = append(result, c)
	}
	return result, nil
}

func hostPort(ports nat.PortMap) int {
	bindings := ports[nat.Port(fmt.Sprintf("%d/tcp", ContainerPort))]
	for _, b := range bindings {
		if p, err := strconv.Atoi(b.HostPort); err == nil && p > 0 {
			return p
		}
	}
	return 0
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
