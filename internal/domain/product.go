package domain

import "context"

// ProductSummary is the subset of a catalog product needed to pick one for variant editing.
type ProductSummary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	Price        *float64 `json:"price"`
	Stock        *float64 `json:"stock"`
	Image        string   `json:"image"`
	VariantCount int      `json:"variantCount"`
}

// ProductPage is one page of the remote product listing.
type ProductPage struct {
	Products []ProductSummary
	// Total is nil when the API did not report it.
	Total *int64
}

// --- Interfaces ---

// CatalogAPI is the remote store API. Implementations forward the admin's
// bearer token found in ctx.
type CatalogAPI interface {
	GetVariants(ctx context.Context, productID string) (*VariantListing, error)
	BulkUpsertVariants(ctx context.Context, productID string, req *UpsertRequest) (*UpsertResult, error)
	UploadVariantImage(ctx context.Context, productID string, upload *ImageUpload) ([]string, error)
	ListProducts(ctx context.Context, page, limit int) (*ProductPage, error)
}
