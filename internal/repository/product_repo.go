package repository

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
)

type ListProductsParams struct {
	Category string
	Page     int
	PageSize int
}

type ListProductsResult struct {
	Products    []entity.Product
	TotalCount  int64
	CurrentPage int
	PageSize    int
	TotalPages  int
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) (string, error)
	GetByID(ctx context.Context, productID string) (*entity.Product, error)
	// FindSummaries returns the display projection of the given products keyed by id.
	// Unknown ids are skipped.
	FindSummaries(ctx context.Context, productIDs []string) (map[string]entity.ProductSummary, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, productID string) error
	List(ctx context.Context, params ListProductsParams) (*ListProductsResult, error)
}
