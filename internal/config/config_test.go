package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_NoPathUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 300, cfg.Catalog.Size)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoad_SQLiteCatalogKeepsSeededSize(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(writeConfig(t, "catalog: {source: sqlite}"))
	require.NoError(t, err)
	assert.Equal(t, SQLiteCatalogSize, cfg.Catalog.Size)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
http:
  port: "9090"
  request_timeout: 5s
session:
  backend: redis
  redis_ttl: 1h
auth:
  jwt_secret: from-file
catalog:
  size: 12
`)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, time.Hour, cfg.Session.RedisTTL)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 12, cfg.Catalog.Size)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"bad yaml", "http: [", nil, "failed to parse config"},
		{"no secret", "", nil, "jwt secret is required"},
		{"bad backend", "auth: {jwt_secret: x}\nsession: {backend: etcd}", nil, "unknown session backend"},
		{"postgres without dsn", "auth: {jwt_secret: x}\nsession: {backend: postgres}", nil, "requires a dsn"},
		{"bad duration", "auth: {jwt_secret: x}", map[string]string{"AUTH_TIMEOUT": "soon"}, "invalid AUTH_TIMEOUT"},
		{"bad size", "auth: {jwt_secret: x}", map[string]string{"CATALOG_SIZE": "many"}, "invalid CATALOG_SIZE"},
		{"sqlite with size", "auth: {jwt_secret: x}\ncatalog: {source: sqlite, size: 12}", nil, "sqlite catalog is seeded with 300 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
