package ports

import (
	"context"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// ProvisioningService is the inbound port driven by the HTTP layer.
type ProvisioningService interface {
	// CreateAndRun scaffolds, builds and starts a new app.
	CreateAndRun(ctx context.Context, req domain.ProvisionRequest) (domain.Result, error)
	// CreateFromTemplate creates or updates a branded app from the template.
	CreateFromTemplate(ctx context.Context, req domain.ProvisionRequest) (domain.Result, error)
	Remove(ctx context.Context, name string) error
	Status(ctx context.Context, name string) (domain.Container, error)
	Logs(ctx context.Context, name string, tail int) (string, error)
	List(ctx context.Context) ([]domain.Container, error)
	AppURL(port int) string
}
