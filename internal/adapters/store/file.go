package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

// brandingFile is the on-disk layout of a file-backed store:
//
//	tenants:
//	  <tenant-id>:
//	    api_url: https://...
//	    theme:
//	      primary: "#0055ff"
type brandingFile struct {
	Tenants map[string]domain.BrandingConfig `yaml:"tenants"`
}

// FileStore serves branding from a YAML document loaded at startup.
type FileStore struct {
	tenants map[string]domain.BrandingConfig
}

// NewFileStore creates a FileStore from already-loaded configs.
func NewFileStore(tenants map[string]domain.BrandingConfig) *FileStore {
	if tenants == nil {
		tenants = map[string]domain.BrandingConfig{}
	}
	for id, cfg := range tenants {
		cfg.TenantID = id
		tenants[id] = cfg
	}
	return &FileStore{tenants: tenants}
}

// LoadFileStore reads a YAML branding file.
func LoadFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read branding file: %w", err)
	}
	var f brandingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse branding file %s: %w", path, err)
	}
	return NewFileStore(f.Tenants), nil
}

// FindBranding implements ports.BrandingStore.
func (s *FileStore) FindBranding(_ context.Context, tenantID string) (domain.BrandingConfig, error) {
	cfg, ok := s.tenants[tenantID]
	if !ok {
		return domain.BrandingConfig{}, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrBrandingNotFound)
	}
	return cfg, nil
}
