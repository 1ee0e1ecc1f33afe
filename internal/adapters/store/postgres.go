package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is the subset of pgxpool.Pool used by the store.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads branding from the chat_config table.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store on top of db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const findBrandingSQL = `SELECT company_id::text, api_url, message_text, header_text, header_icon_url,
       message_icon_url, theme_primary, content_bg, footer_bg, text_color, bubble_user, bubble_bot
  FROM chat_config
 WHERE company_id::text = $1`

// FindBranding implements ports.BrandingStore. NULL columns read as empty
// strings.
func (s *PostgresStore) FindBranding(ctx context.Context, tenantID string) (domain.BrandingConfig, error) {
	var (
		id                                               string
		apiURL, message, header, headerIcon, messageIcon *string
		primary, contentBg, footerBg, text, bUser, bBot  *string
	)
	err := s.db.QueryRow(ctx, findBrandingSQL, tenantID).Scan(
		&id, &apiURL, &message, &header, &headerIcon, &messageIcon,
		&primary, &contentBg, &footerBg, &text, &bUser, &bBot,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BrandingConfig{}, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrBrandingNotFound)
	}
	if err != nil {
		return domain.BrandingConfig{}, fmt.Errorf("get branding %s: %w", tenantID, err)
	}

	return domain.BrandingConfig{
		TenantID:       id,
		APIURL:         deref(apiURL),
		WelcomeText:    deref(message),
		HeaderText:     deref(header),
		HeaderIconURL:  deref(headerIcon),
		MessageIconURL: deref(messageIcon),
		Theme: domain.Theme{
			Primary:    deref(primary),
			ContentBg:  deref(contentBg),
			FooterBg:   deref(footerBg),
			TextColor:  deref(text),
			BubbleUser: deref(bUser),
			BubbleBot:  deref(bBot),
		},
	}, nil
}

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse branding db config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create branding db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping branding db: %w", err)
	}

	return pool, nil
}

// RunMigrations applies the embedded chat_config migrations.
func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
