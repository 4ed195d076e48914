package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
)

const defaultProductCacheTTL = 5 * time.Minute

type CreateProductInput struct {
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category" yaml:"category"`
	Capacity    string `json:"capacity,omitempty" yaml:"capacity"`
	Warranty    string `json:"warranty,omitempty" yaml:"warranty"`
	Price       int64  `json:"price" yaml:"price"`
	Description string `json:"description" yaml:"description"`
}

// UpdateProductInput leaves nil fields untouched.
type UpdateProductInput struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Capacity    *string `json:"capacity,omitempty"`
	Warranty    *string `json:"warranty,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Description *string `json:"description,omitempty"`
}

type ProductList struct {
	Products   []entity.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

type ProductService interface {
	List(ctx context.Context, category string, page, pageSize int) (*ProductList, error)
	Get(ctx context.Context, productID string) (*entity.Product, error)
	Summaries(ctx context.Context, productIDs []string) (map[string]entity.ProductSummary, error)
	Create(ctx context.Context, in CreateProductInput) (*entity.Product, error)
	Update(ctx context.Context, productID string, in UpdateProductInput) (*entity.Product, error)
	Delete(ctx context.Context, productID string) error
	UploadImage(ctx context.Context, productID, fileName, contentType string, data []byte) (*entity.Product, error)
}

type ProductServiceConfig struct {
	CacheTTL time.Duration
}

type productService struct {
	productRepo repository.ProductRepository
	cache       repository.ProductCache
	images      repository.ImageStorage
	log         logger.Logger
	cacheTTL    time.Duration
}

// NewProductService accepts a nil cache and a nil image storage; reads then go
// straight to the repository and uploads fail with ErrMisconfigured.
func NewProductService(
	productRepo repository.ProductRepository,
	cache repository.ProductCache,
	images repository.ImageStorage,
	log logger.Logger,
	cfg ProductServiceConfig,
) ProductService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultProductCacheTTL
	}
	return &productService{
		productRepo: productRepo,
		cache:       cache,
		images:      images,
		log:         log,
		cacheTTL:    ttl,
	}
}

func (s *productService) List(ctx context.Context, category string, page, pageSize int) (*ProductList, error) {
	page, pageSize = normalizePage(page, pageSize)
	if category != "" && !entity.Category(category).Valid() {
		return nil, validationError("unknown category %q", category)
	}

	result, err := s.productRepo.List(ctx, repository.ListProductsParams{
		Category: category,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.log.Errorf("Failed to list products (category=%q): %v", category, err)
		return nil, fmt.Errorf("could not list products: %w", err)
	}

	products := result.Products
	if products == nil {
		products = []entity.Product{}
	}
	return &ProductList{
		Products:   products,
		Pagination: newPagination(page, pageSize, result.TotalCount),
	}, nil
}

func (s *productService) Get(ctx context.Context, productID string) (*entity.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, productID)
		if err == nil {
			s.log.Debugf("Product %s found in cache", productID)
			return cached, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warnf("Error getting product %s from cache: %v", productID, err)
		}
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("product %s", productID)
		}
		s.log.Errorf("Failed to get product %s: %v", productID, err)
		return nil, fmt.Errorf("could not get product: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product, s.cacheTTL); err != nil {
			s.log.Warnf("Failed to cache product %s: %v", productID, err)
		}
	}
	return product, nil
}

func (s *productService) Summaries(ctx context.Context, productIDs []string) (map[string]entity.ProductSummary, error) {
	if len(productIDs) == 0 {
		return map[string]entity.ProductSummary{}, nil
	}
	summaries, err := s.productRepo.FindSummaries(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("could not load product summaries: %w", err)
	}
	return summaries, nil
}

func (s *productService) Create(ctx context.Context, in CreateProductInput) (*entity.Product, error) {
	now := time.Now().UTC()
	product := &entity.Product{
		Name:        strings.TrimSpace(in.Name),
		Category:    entity.Category(strings.ToLower(strings.TrimSpace(in.Category))),
		Capacity:    strings.TrimSpace(in.Capacity),
		Warranty:    strings.TrimSpace(in.Warranty),
		Price:       in.Price,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := product.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	id, err := s.productRepo.Create(ctx, product)
	if err != nil {
		s.log.Errorf("Failed to create product %q: %v", product.Name, err)
		return nil, fmt.Errorf("could not create product: %w", err)
	}
	product.ID = id
	s.log.Infof("Product created: ID=%s, Name=%s, Category=%s", id, product.Name, product.Category)
	return product, nil
}

func (s *productService) Update(ctx context.Context, productID string, in UpdateProductInput) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("product %s", productID)
		}
		return nil, fmt.Errorf("could not get product: %w", err)
	}

	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		product.Category = entity.Category(strings.ToLower(strings.TrimSpace(*in.Category)))
	}
	if in.Capacity != nil {
		product.Capacity = strings.TrimSpace(*in.Capacity)
	}
	if in.Warranty != nil {
		product.Warranty = strings.TrimSpace(*in.Warranty)
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Description != nil {
		product.Description = strings.TrimSpace(*in.Description)
	}
	if err := product.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("product %s", productID)
		}
		s.log.Errorf("Failed to update product %s: %v", productID, err)
		return nil, fmt.Errorf("could not update product: %w", err)
	}
	s.invalidate(ctx, productID)
	s.log.Infof("Product %s updated", productID)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, productID string) error {
	if err := s.productRepo.Delete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("product %s", productID)
		}
		s.log.Errorf("Failed to delete product %s: %v", productID, err)
		return fmt.Errorf("could not delete product: %w", err)
	}
	s.invalidate(ctx, productID)
	s.log.Infof("Product %s deleted", productID)
	return nil
}

func (s *productService) UploadImage(ctx context.Context, productID, fileName, contentType string, data []byte) (*entity.Product, error) {
	if s.images == nil {
		return nil, fmt.Errorf("%w: image storage", ErrMisconfigured)
	}
	if len(data) == 0 {
		return nil, validationError("image file is empty")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, validationError("file must be an image, got %q", contentType)
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("product %s", productID)
		}
		return nil, fmt.Errorf("could not get product: %w", err)
	}

	url, err := s.images.Upload(ctx, fileName, contentType, data)
	if err != nil {
		s.log.Errorf("Failed to upload image for product %s: %v", productID, err)
		return nil, fmt.Errorf("%w: could not upload image: %v", ErrExternalService, err)
	}

	product.ImageURL = url
	product.UpdatedAt = time.Now().UTC()
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("could not save product image: %w", err)
	}
	s.invalidate(ctx, productID)
	s.log.Infof("Image uploaded for product %s: %s", productID, url)
	return product, nil
}

func (s *productService) invalidate(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productID); err != nil {
		s.log.Warnf("Failed to invalidate cached product %s: %v", productID, err)
	}
}
