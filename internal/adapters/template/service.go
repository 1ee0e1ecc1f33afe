// Package template stages front-end templates into app workspaces and
// applies the tenant branding to the staged sources.
package template

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// Service implements ports.TemplateService on the local filesystem.
type Service struct {
	logger   zerolog.Logger
	progress io.Writer
	source   *SourcePatcher
	style    *StylePatcher
	relax    *RelaxPatcher
}

// NewService creates a template Service. Clone progress of git sources is
// written to progress when non-nil.
func NewService(logger zerolog.Logger, progress io.Writer) *Service {
	logger = logger.With().Str("component", "template").Logger()
	return &Service{
		logger:   logger,
		progress: progress,
		source:   NewSourcePatcher(logger),
		style:    NewStylePatcher(logger),
		relax:    NewRelaxPatcher(logger),
	}
}

// Stage copies the template source into dst, replacing files that exist.
func (s *Service) Stage(ctx context.Context, source, dst string) error {
	dir, cleanup, err := Fetch(ctx, source, s.progress)
	if err != nil {
		return err
	}
	defer cleanup()

	s.logger.Debug().Str("src", dir).Str("dst", dst).Msg("copying template")
	return CopyTemplate(dir, dst, true)
}

// Patch applies the source and style patchers.
func (s *Service) Patch(dir string, cfg domain.BrandingConfig) error {
	if err := s.source.Patch(dir, SourceValues{
		APIURL:      cfg.APIURL,
		InitMessage: cfg.WelcomeText,
		AvatarURL:   cfg.MessageIconURL,
		Title:       cfg.HeaderText,
		HeaderIcon:  cfg.HeaderIconURL,
	}); err != nil {
		return err
	}
	return s.style.Patch(dir, cfg.Theme)
}

// Relax applies the relaxation patcher.
func (s *Service) Relax(dir string) error {
	return s.relax.Patch(dir)
}
