package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratedRecords(t *testing.T) {
	items := GeneratedRecords(DefaultSize)
	require.Len(t, items, 300)

	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, "Image 1", items[0].Title)
	assert.Equal(t, 100.0, items[0].Price)
	assert.Equal(t, DefaultImageSrc, items[0].ImageSrc)

	assert.Equal(t, int64(300), items[299].ID)
	assert.Equal(t, "Image 300", items[299].Title)
	assert.Equal(t, 15050.0, items[299].Price)
}

func TestGenerated_Get(t *testing.T) {
	p := NewGenerated(10)
	ctx := context.Background()

	item, err := p.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Image 5", item.Title)
	assert.Equal(t, 300.0, item.Price)

	_, err = p.Get(ctx, 11)
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = p.Get(ctx, 0)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestGenerated_ListReturnsCopy(t *testing.T) {
	p := NewGenerated(3)
	ctx := context.Background()

	items, err := p.List(ctx)
	require.NoError(t, err)
	items[0].Title = "changed"

	again, err := p.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Image 1", again[0].Title)
}

func TestPage(t *testing.T) {
	items := GeneratedRecords(25)

	assert.Len(t, Page(items, 1, 10), 10)
	assert.Equal(t, int64(11), Page(items, 2, 10)[0].ID)
	assert.Len(t, Page(items, 3, 10), 5)
	assert.Empty(t, Page(items, 4, 10))
	assert.Equal(t, int64(1), Page(items, 0, 10)[0].ID)
	assert.Len(t, Page(items, 1, 0), 25)
}
