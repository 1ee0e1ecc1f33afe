package ports

import (
	"context"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// ContainerService defines the lifecycle operations the provisioning
// pipelines issue against the container runtime. Implementations shell out
// to a Docker-compatible CLI, so Docker and Podman are interchangeable.
//
// Methods taking an out channel stream the command's combined output line
// by line; a nil channel disables streaming.
type ContainerService interface {
	Exists(ctx context.Context, name string) bool
	IsRunning(ctx context.Context, name string) (bool, error)
	EnsureRunning(ctx context.Context, name string) error
	Build(ctx context.Context, dir, image string, out chan<- string) (string, error)
	RunDetached(ctx context.Context, name string, hostPort int, image string, out chan<- string) (string, error)
	RemoveForce(ctx context.Context, name string, out chan<- string) (string, error)
	CopyTo(ctx context.Context, src, name, dst string, out chan<- string) (string, error)
	ExecSafe(ctx context.Context, name, cmd string, out chan<- string) (string, error)

	Inspect(ctx context.Context, name string) (domain.Container, error)
	List(ctx context.Context, prefix string) ([]domain.Container, error)
	Logs(ctx context.Context, name string, tail int) (string, error)
}
