package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/melih/lighthouse-factory/internal/adapters/builder"
	"github.com/melih/lighthouse-factory/internal/adapters/docker"
	apphttp "github.com/melih/lighthouse-factory/internal/adapters/http"
	"github.com/melih/lighthouse-factory/internal/adapters/loghub"
	"github.com/melih/lighthouse-factory/internal/adapters/process"
	"github.com/melih/lighthouse-factory/internal/adapters/store"
	"github.com/melih/lighthouse-factory/internal/adapters/template"
	"github.com/melih/lighthouse-factory/internal/config"
	"github.com/melih/lighthouse-factory/internal/core/services"
	"github.com/melih/lighthouse-factory/internal/logging"
	"github.com/melih/lighthouse-factory/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, listen string
	var migrate bool

	flagSet := pflag.NewFlagSet("lighthouse-factory", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	flagSet.BoolVar(&migrate, "migrate", false, "run branding database migrations before starting")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listen != "" {
		cfg.ListenAddr = listen
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	branding, closeStore, err := store.Open(ctx, logger, store.Options{
		Backend:     cfg.BrandingBackend,
		DatabaseURL: cfg.DatabaseURL,
		File:        cfg.BrandingFile,
		Migrate:     migrate,
	})
	if err != nil {
		return fmt.Errorf("open branding store: %w", err)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	runner := process.NewRunner(logger, cfg.ProcessTimeout)
	hub := loghub.New(
		loghub.WithLogger(logger),
		loghub.WithActiveGauge(m.ActiveStreams),
		loghub.WithBuffer(cfg.StreamBuffer),
	)

	factory := services.NewFactory(services.Deps{
		Runtime: docker.NewAdapter(runner, logger, docker.Options{
			Binary:      cfg.RuntimeBinary,
			MidTimeout:  cfg.RuntimeTimeout,
			LongTimeout: cfg.BuildTimeout,
		}),
		Builder: builder.NewBuilderAdapter(runner, logger, builder.Options{
			NPM:     cfg.NPMBinary,
			NPX:     cfg.NPXBinary,
			Timeout: cfg.BuildTimeout,
		}),
		Templates: template.NewService(logger, logger),
		Branding:  branding,
		Hub:       hub,
		Logger:    logger,
		Metrics:   m,
	}, services.Options{
		WorkspaceRoot:  cfg.WorkspaceRoot,
		TemplateSource: cfg.TemplateSource,
		ImagePrefix:    cfg.ImagePrefix,
		PublicHost:     cfg.PublicHost,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		DisableStartupMessage: true,
		ErrorHandler:          apphttp.ErrorHandler,
	})
	apphttp.Register(app,
		apphttp.NewAppHandler(factory, logger),
		apphttp.NewStreamHandler(hub, logger),
		apphttp.NewProxyHandler(factory, cfg.PublicHost, "", logger),
		adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Str("workspace", cfg.WorkspaceRoot).Msg("starting server")
		return app.Listen(cfg.ListenAddr)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}
