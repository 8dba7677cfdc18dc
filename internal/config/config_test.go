// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/storefront")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	Reset()
	t.Cleanup(Reset)
}

func TestLoadDefaults(t *testing.T) {
	requiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/storefront", cfg.Database.URL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Catalog.RefreshInterval)
	assert.Equal(t, "Uncategorized", cfg.Catalog.UncategorizedLabel)
	assert.NotEmpty(t, cfg.Catalog.DefaultImageURL)
	assert.Equal(t, "cart:", cfg.Storefront.CartKeyPrefix)
	assert.Equal(t, "Customer", cfg.Storefront.ProfileNamePlaceholder)
	assert.False(t, cfg.Google.Enabled)
	assert.Same(t, cfg, Get())
}

func TestFileThenEnvPrecedence(t *testing.T) {
	requiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
catalog:
  refresh_interval: 2m
storefront:
  default_shipping_city: Springfield
`), 0o600))
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Catalog.RefreshInterval)
	assert.Equal(t, "Springfield", cfg.Storefront.DefaultShippingCity)
	assert.Equal(t, "00000", cfg.Storefront.DefaultShippingZip)
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing database",
			env:  map[string]string{"DATABASE_URL": ""},
			want: "DATABASE_URL is required",
		},
		{
			name: "google without credentials",
			env:  map[string]string{"GOOGLE_ENABLED": "true"},
			want: "GOOGLE_CLIENT_ID",
		},
		{
			name: "zero catalog refresh",
			env:  map[string]string{"CATALOG_REFRESH_INTERVAL": "0s"},
			want: "catalog.refresh_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetPanicsBeforeLoad(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	assert.Panics(t, func() { Get() })
}
