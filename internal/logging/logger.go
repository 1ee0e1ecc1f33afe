package logging

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/melih/lighthouse-factory/internal/config"
)

// NewLogger creates the service's JSON logger. Unknown levels fall back to
// info.
func NewLogger(cfg *config.Config) zerolog.Logger {
	ctx := zerolog.New(os.Stdout).With().Timestamp()

	if cfg.ServiceName != "" {
		ctx = ctx.Str("service", cfg.ServiceName)
	}
	if cfg.BrandingBackend != "" {
		ctx = ctx.Str("branding_backend", cfg.BrandingBackend)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
