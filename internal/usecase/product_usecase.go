package usecase

import (
	"context"
	"time"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/cache"
	"atelier-admin/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const (
	productPageSize = 20
	productMaxPages = 50
)

type ProductUsecase struct {
	catalog domain.CatalogAPI
	cache   cache.CacheService
	ttl     time.Duration
	loads   singleflight.Group
}

func NewProductUsecase(catalog domain.CatalogAPI, cache cache.CacheService, ttl time.Duration) *ProductUsecase {
	return &ProductUsecase{catalog: catalog, cache: cache, ttl: ttl}
}

// ListProducts returns every product of the store for the picker. The list
// is cached; force skips the cache and refills it.
func (uc *ProductUsecase) ListProducts(ctx context.Context, force bool) ([]domain.ProductSummary, error) {
	if !force {
		if cached, found := uc.cache.Get(cache.KeyProductList); found {
			if products, ok := cached.([]domain.ProductSummary); ok {
				return products, nil
			}
		}
	}

	v, err, _ := shared(ctx, &uc.loads, cache.KeyProductList, func(ctx context.Context) (interface{}, error) {
		return uc.fetchAll(ctx)
	})
	if err != nil {
		return nil, remoteError(err, domain.MessageProductsFailed)
	}
	products := v.([]domain.ProductSummary)
	uc.cache.Set(cache.KeyProductList, products, uc.ttl)
	return products, nil
}

// fetchAll pages through the store API until the reported total is reached,
// a short page arrives or the page cap is hit.
func (uc *ProductUsecase) fetchAll(ctx context.Context) ([]domain.ProductSummary, error) {
	products := []domain.ProductSummary{}
	for page := 1; page <= productMaxPages; page++ {
		res, err := uc.catalog.ListProducts(ctx, page, productPageSize)
		if err != nil {
			return nil, err
		}
		products = append(products, res.Products...)

		if res.Total != nil && int64(len(products)) >= *res.Total {
			break
		}
		if len(res.Products) < productPageSize {
			break
		}
		if page == productMaxPages {
			logger.WithContext(ctx).Warn().Int("pages", page).Int("products", len(products)).Msg("Product list truncated at page cap")
		}
	}
	return products, nil
}
