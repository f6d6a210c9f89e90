package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"atelier-admin/internal/domain"
	infracache "atelier-admin/internal/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productPage(from, n int) []domain.ProductSummary {
	page := make([]domain.ProductSummary, n)
	for i := range page {
		page[i] = domain.ProductSummary{ID: fmt.Sprintf("p%d", from+i), Name: fmt.Sprintf("Ring %d", from+i)}
	}
	return page
}

func TestListProductsPagesUntilShortPage(t *testing.T) {
	catalog := &fakeCatalog{pages: [][]domain.ProductSummary{
		productPage(0, productPageSize),
		productPage(20, productPageSize),
		productPage(40, 5),
	}}
	uc := NewProductUsecase(catalog, infracache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	products, err := uc.ListProducts(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, products, 45)
	assert.Equal(t, "p44", products[44].ID)
	assert.Equal(t, 3, catalog.pageCalls)
}

func TestListProductsStopsAtTotal(t *testing.T) {
	total := int64(40)
	catalog := &fakeCatalog{total: &total, pages: [][]domain.ProductSummary{
		productPage(0, productPageSize),
		productPage(20, productPageSize),
		productPage(40, productPageSize),
	}}
	uc := NewProductUsecase(catalog, infracache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	products, err := uc.ListProducts(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, products, 40)
	assert.Equal(t, 2, catalog.pageCalls)
}

func TestListProductsPageCap(t *testing.T) {
	pages := make([][]domain.ProductSummary, productMaxPages+5)
	for i := range pages {
		pages[i] = productPage(i*productPageSize, productPageSize)
	}
	catalog := &fakeCatalog{pages: pages}
	uc := NewProductUsecase(catalog, infracache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	products, err := uc.ListProducts(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, products, productMaxPages*productPageSize)
	assert.Equal(t, productMaxPages, catalog.pageCalls)
}

func TestListProductsCache(t *testing.T) {
	catalog := &fakeCatalog{pages: [][]domain.ProductSummary{productPage(0, 3)}}
	uc := NewProductUsecase(catalog, infracache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	_, err := uc.ListProducts(ctx, false)
	require.NoError(t, err)
	_, err = uc.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.pageCalls)

	catalog.pages = [][]domain.ProductSummary{productPage(0, 4)}
	products, err := uc.ListProducts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, products, 4)
	assert.Equal(t, 2, catalog.pageCalls)

	products, err = uc.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, products, 4)
	assert.Equal(t, 2, catalog.pageCalls)
}
