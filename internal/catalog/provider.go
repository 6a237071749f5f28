package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
)

const (
	DefaultSize     = 300
	DefaultImageSrc = "images/catbanner-01.jpg"
	basePrice       = 100
	priceStep       = 50
)

var ErrItemNotFound = errors.New("catalog item not found")

// Provider supplies the fixed list of purchasable items.
type Provider interface {
	List(ctx context.Context) ([]domain.CatalogItem, error)
	Get(ctx context.Context, id int64) (*domain.CatalogItem, error)
}

// GeneratedRecords builds n synthetic records with sequential ids starting at 1.
func GeneratedRecords(n int) []domain.CatalogItem {
	items := make([]domain.CatalogItem, n)
	for i := range items {
		id := int64(i + 1)
		items[i] = domain.CatalogItem{
			ID:       id,
			Title:    fmt.Sprintf("Image %d", id),
			Price:    float64(basePrice + i*priceStep),
			ImageSrc: DefaultImageSrc,
		}
	}
	return items
}

type generated struct {
	items []domain.CatalogItem
	byID  map[int64]int
}

// NewGenerated returns an in-process provider holding n generated records.
func NewGenerated(n int) Provider {
	items := GeneratedRecords(n)
	byID := make(map[int64]int, n)
	for i, item := range items {
		byID[item.ID] = i
	}
	return &generated{items: items, byID: byID}
}

func (g *generated) List(context.Context) ([]domain.CatalogItem, error) {
	out := make([]domain.CatalogItem, len(g.items))
	copy(out, g.items)
	return out, nil
}

func (g *generated) Get(_ context.Context, id int64) (*domain.CatalogItem, error) {
	i, ok := g.byID[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	item := g.items[i]
	return &item, nil
}

// Page returns the 1-based page of items. Out of range pages are empty.
func Page(items []domain.CatalogItem, page, perPage int) []domain.CatalogItem {
	if perPage <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []domain.CatalogItem{}
	}
	end := min(start+perPage, len(items))
	return items[start:end]
}
