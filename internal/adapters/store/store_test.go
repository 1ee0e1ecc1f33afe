package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/melih/lighthouse-factory/internal/core/domain"
)

type mockDB struct {
	mock.Mock
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

func strPtr(s string) *string { return &s }

func TestPostgresStore_FindBranding(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, findBrandingSQL, []any{"t-1"}).Return(&mockRow{
		scanFunc: func(dest ...any) error {
			require.Len(t, dest, 12)
			*(dest[0].(*string)) = "t-1"
			*(dest[1].(**string)) = strPtr("https://api.acme.test/ask")
			*(dest[2].(**string)) = strPtr("Hi!")
			// header_text is NULL
			*(dest[6].(**string)) = strPtr("#0055ff")
			*(dest[11].(**string)) = strPtr("#f5f5f5")
			return nil
		},
	})

	cfg, err := NewPostgresStore(db).FindBranding(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", cfg.TenantID)
	assert.Equal(t, "https://api.acme.test/ask", cfg.APIURL)
	assert.Equal(t, "Hi!", cfg.WelcomeText)
	assert.Equal(t, "", cfg.HeaderText)
	assert.Equal(t, "#0055ff", cfg.Theme.Primary)
	assert.Equal(t, "#f5f5f5", cfg.Theme.BubbleBot)
	db.AssertExpectations(t)
}

func TestPostgresStore_NotFound(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(...any) error { return pgx.ErrNoRows },
	})

	_, err := NewPostgresStore(db).FindBranding(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrBrandingNotFound)
}

func TestPostgresStore_QueryError(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{
		scanFunc: func(...any) error { return errors.New("connection reset") },
	})

	_, err := NewPostgresStore(db).FindBranding(context.Background(), "t-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrBrandingNotFound)
}

const brandingYAML = `tenants:
  acme:
    api_url: https://api.acme.test/ask
    welcome_text: Welcome to Acme
    header_text: Acme Chat
    theme:
      primary: "#0055ff"
      bubble_bot: "#f5f5f5"
`

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "branding.yaml")
	require.NoError(t, os.WriteFile(path, []byte(brandingYAML), 0o644))

	s, closeFn, err := Open(context.Background(), zerolog.Nop(), Options{Backend: BackendFile, File: path})
	require.NoError(t, err)
	defer closeFn()

	cfg, err := s.FindBranding(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.TenantID)
	assert.Equal(t, "Welcome to Acme", cfg.WelcomeText)
	assert.Equal(t, "#0055ff", cfg.Theme.Primary)

	_, err = s.FindBranding(context.Background(), "globex")
	assert.ErrorIs(t, err, domain.ErrBrandingNotFound)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), zerolog.Nop(), Options{Backend: "mysql"})
	assert.Error(t, err)
}
