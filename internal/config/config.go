package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from defaults, then an
// optional YAML file, then environment variables.
type Config struct {
	ServiceName string `yaml:"service_name"`
	LogLevel    string `yaml:"log_level"`
	ListenAddr  string `yaml:"listen_addr" validate:"required"`

	// PublicHost is the host part of the URLs handed back to callers.
	PublicHost     string `yaml:"public_host" validate:"required"`
	WorkspaceRoot  string `yaml:"workspace_root" validate:"required"`
	TemplateSource string `yaml:"template_source"`
	ImagePrefix    string `yaml:"image_prefix" validate:"required"`

	RuntimeBinary string `yaml:"runtime_binary" validate:"required"`
	NPMBinary     string `yaml:"npm_binary" validate:"required"`
	NPXBinary     string `yaml:"npx_binary" validate:"required"`

	ProcessTimeout time.Duration `yaml:"process_timeout" validate:"gt=0"`
	RuntimeTimeout time.Duration `yaml:"runtime_timeout" validate:"gt=0"`
	BuildTimeout   time.Duration `yaml:"build_timeout" validate:"gt=0"`

	BrandingBackend string `yaml:"branding_backend" validate:"oneof=postgres file"`
	DatabaseURL     string `yaml:"database_url" validate:"required_if=BrandingBackend postgres"`
	BrandingFile    string `yaml:"branding_file" validate:"required_if=BrandingBackend file"`

	StreamBuffer int `yaml:"stream_buffer" validate:"gte=1"`
}

var validate = validator.New()

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServiceName:     "lighthouse-factory",
		LogLevel:        "info",
		ListenAddr:      ":3000",
		PublicHost:      "localhost",
		WorkspaceRoot:   "./workspace",
		TemplateSource:  "./template",
		ImagePrefix:     "local/vue-",
		RuntimeBinary:   "docker",
		NPMBinary:       "npm",
		NPXBinary:       "npx",
		ProcessTimeout:  5 * time.Minute,
		RuntimeTimeout:  5 * time.Minute,
		BuildTimeout:    15 * time.Minute,
		BrandingBackend: "postgres",
		StreamBuffer:    256,
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ServiceName = getEnv("SERVICE_NAME", c.ServiceName)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ListenAddr = getEnv("HTTP_LISTEN_ADDR", c.ListenAddr)
	c.PublicHost = getEnv("PUBLIC_HOST", c.PublicHost)
	c.WorkspaceRoot = getEnv("WORKSPACE_ROOT", c.WorkspaceRoot)
	c.TemplateSource = getEnv("TEMPLATE_SOURCE", c.TemplateSource)
	c.ImagePrefix = getEnv("IMAGE_PREFIX", c.ImagePrefix)
	c.RuntimeBinary = getEnv("CONTAINER_RUNTIME", c.RuntimeBinary)
	c.NPMBinary = getEnv("NPM_BINARY", c.NPMBinary)
	c.NPXBinary = getEnv("NPX_BINARY", c.NPXBinary)
	c.BrandingBackend = getEnv("BRANDING_BACKEND", c.BrandingBackend)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.BrandingFile = getEnv("BRANDING_FILE", c.BrandingFile)

	var err error
	if c.ProcessTimeout, err = getDuration("PROCESS_TIMEOUT", c.ProcessTimeout); err != nil {
		return err
	}
	if c.RuntimeTimeout, err = getDuration("RUNTIME_TIMEOUT", c.RuntimeTimeout); err != nil {
		return err
	}
	if c.BuildTimeout, err = getDuration("BUILD_TIMEOUT", c.BuildTimeout); err != nil {
		return err
	}
	return nil
}

// Validate checks that required fields are set and consistent.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	var fields []string
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
