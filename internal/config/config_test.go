package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost/greenlens_test?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Provider)
	assert.Equal(t, 10, cfg.Progression.PointsPerScan)
	assert.Equal(t, 2.0, cfg.Progression.FallbackFootprint)
	assert.Equal(t, 3, cfg.Progression.MaxAlternatives)
	assert.Equal(t, "https://world.openfoodfacts.org", cfg.Catalog.BaseURL)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, time.UTC, cfg.Progression.Location())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://localhost/greenlens_test")
	t.Setenv("POINTS_PER_SCAN", "15")
	t.Setenv("OFF_TIMEOUT", "3s")
	t.Setenv("DEFAULT_FALLBACK_FOOTPRINT", "2.5")
	t.Setenv("CACHE_PROVIDER", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Progression.PointsPerScan)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 2.5, cfg.Progression.FallbackFootprint)
	assert.Equal(t, "redis", cfg.Cache.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL is required"},
		{"unknown cache", map[string]string{"CACHE_PROVIDER": "memcached"}, "unknown cache provider"},
		{"bad timezone", map[string]string{"PROGRESSION_TIMEZONE": "Mars/Olympus"}, "PROGRESSION_TIMEZONE"},
		{"relative catalog url", map[string]string{"OFF_BASE_URL": "openfoodfacts"}, "OFF_BASE_URL"},
		{"zero points", map[string]string{"POINTS_PER_SCAN": "0"}, "POINTS_PER_SCAN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", "test")
			t.Setenv("DATABASE_URL", "postgres://localhost/greenlens_test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
