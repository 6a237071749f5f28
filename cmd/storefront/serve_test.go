package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pusit-hanp/capstone-image-store/internal/config"
	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/pusit-hanp/capstone-image-store/internal/session"
)

func closeAll(t *testing.T, closers []io.Closer) {
	t.Helper()
	for _, c := range closers {
		assert.NoError(t, c.Close())
	}
}

func TestOpenCatalog_Generated(t *testing.T) {
	var closers []io.Closer
	provider, err := openCatalog(config.CatalogConfig{Source: "generated", Size: 10}, &closers)
	require.NoError(t, err)
	assert.Empty(t, closers)

	items, err := provider.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestOpenCatalog_SQLite(t *testing.T) {
	var closers []io.Closer
	provider, err := openCatalog(config.CatalogConfig{
		Source: "sqlite",
		DBPath: filepath.Join(t.TempDir(), "catalog.db"),
	}, &closers)
	require.NoError(t, err)
	defer closeAll(t, closers)

	item, err := provider.Get(context.Background(), 300)
	require.NoError(t, err)
	assert.Equal(t, "Image 300", item.Title)
}

func TestOpenSessions_Memory(t *testing.T) {
	var closers []io.Closer
	repo, err := openSessions(context.Background(), config.SessionConfig{Backend: "memory"}, &closers)
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryRepository{}, repo)
}

func TestOpenSessions_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	var closers []io.Closer
	repo, err := openSessions(context.Background(), config.SessionConfig{
		Backend:   "redis",
		RedisAddr: mr.Addr(),
	}, &closers)
	require.NoError(t, err)
	defer closeAll(t, closers)

	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, domain.NewUserSnapshot("u1", "u1@example.com")))
	assert.True(t, mr.Exists("userInfo:u1"))
}

func TestOpenSessions_RedisUnavailable(t *testing.T) {
	var closers []io.Closer
	_, err := openSessions(context.Background(), config.SessionConfig{
		Backend:   "redis",
		RedisAddr: "127.0.0.1:1",
	}, &closers)
	assert.Error(t, err)
}
