// Package store provides the branding configuration backends.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/core/ports"
)

const (
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DatabaseURL string
	File        string
	Migrate     bool
}

// Open returns the configured BrandingStore and a function releasing its
// resources.
func Open(ctx context.Context, logger zerolog.Logger, opts Options) (ports.BrandingStore, func(), error) {
	switch opts.Backend {
	case BackendPostgres:
		if opts.Migrate {
			logger.Info().Msg("running branding migrations")
			if err := RunMigrations(opts.DatabaseURL); err != nil {
				return nil, nil, err
			}
		}
		pool, err := NewPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresStore(pool), pool.Close, nil
	case BackendFile:
		s, err := LoadFileStore(opts.File)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("file", opts.File).Int("tenants", len(s.tenants)).Msg("loaded branding file")
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown branding backend %q", opts.Backend)
	}
}
