package ports

import (
	"context"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// BrandingStore looks up tenant branding. Unknown tenants yield
// domain.ErrBrandingNotFound.
type BrandingStore interface {
	FindBranding(ctx context.Context, tenantID string) (domain.BrandingConfig, error)
}
