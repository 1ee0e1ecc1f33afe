package ports

import (
	"context"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// TemplateService stages a source template into an app workspace and
// rewrites the templated artifacts. Missing patch targets are skipped.
type TemplateService interface {
	Stage(ctx context.Context, source, dst string) error
	Patch(dir string, cfg domain.BrandingConfig) error
	Relax(dir string) error
}
