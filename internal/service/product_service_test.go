package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockImageStorage struct {
	mock.Mock
}

func (m *MockImageStorage) Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, contentType, data)
	return args.String(0), args.Error(1)
}

func TestProductService_Create(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo, nil, nil, testLog, ProductServiceConfig{})

	p, err := svc.Create(context.Background(), CreateProductInput{
		Name:     "  Family Digester 4m3 ",
		Category: "Biogas",
		Capacity: "4m3",
		Warranty: "5 years",
		Price:    42000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Family Digester 4m3", p.Name)
	assert.Equal(t, entity.CategoryBiogas, p.Category)

	tests := []struct {
		name string
		in   CreateProductInput
	}{
		{"missing name", CreateProductInput{Category: "biogas", Price: 10}},
		{"unknown category", CreateProductInput{Name: "Seeds", Category: "seeds", Price: 10}},
		{"zero price", CreateProductInput{Name: "Compost", Category: "fertilizer"}},
		{"capacity on fertilizer", CreateProductInput{Name: "Compost", Category: "fertilizer", Price: 10, Capacity: "5kg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProductService_GetUsesCacheAndUpdateInvalidates(t *testing.T) {
	repo := newFakeProductRepo()
	cache := newFakeProductCache()
	svc := NewProductService(repo, cache, nil, testLog, ProductServiceConfig{})
	ctx := context.Background()
	p := repo.add("Digester", entity.CategoryBiogas, 500)

	_, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets, "second read should be served from cache")
	assert.True(t, cache.has(p.ID))

	name := "Digester Plus"
	_, err = svc.Update(ctx, p.ID, UpdateProductInput{Name: &name})
	require.NoError(t, err)
	assert.False(t, cache.has(p.ID))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Digester Plus", got.Name)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.False(t, cache.has(p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrNotFound)
}

func TestProductService_List(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo, nil, nil, testLog, ProductServiceConfig{})
	repo.add("Digester", entity.CategoryBiogas, 500)
	repo.add("Compost", entity.CategoryFertilizer, 100)

	list, err := svc.List(context.Background(), "fertilizer", 0, 0)
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Compost", list.Products[0].Name)
	assert.Equal(t, 1, list.Pagination.CurrentPage)
	assert.Equal(t, defaultPageSize, list.Pagination.PageSize)

	_, err = svc.List(context.Background(), "seeds", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductService_UploadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("no storage configured", func(t *testing.T) {
		svc := NewProductService(newFakeProductRepo(), nil, nil, testLog, ProductServiceConfig{})
		_, err := svc.UploadImage(ctx, "any", "a.png", "image/png", []byte{1})
		assert.ErrorIs(t, err, ErrMisconfigured)
	})

	t.Run("stores url", func(t *testing.T) {
		repo := newFakeProductRepo()
		images := new(MockImageStorage)
		svc := NewProductService(repo, nil, images, testLog, ProductServiceConfig{})
		p := repo.add("Digester", entity.CategoryBiogas, 500)

		images.On("Upload", ctx, "unit.png", "image/png", []byte{1, 2}).
			Return("http://minio:9000/products/products/abc.png", nil).Once()

		got, err := svc.UploadImage(ctx, p.ID, "unit.png", "image/png", []byte{1, 2})
		require.NoError(t, err)
		assert.Equal(t, "http://minio:9000/products/products/abc.png", got.ImageURL)
		images.AssertExpectations(t)
	})

	t.Run("rejects non images", func(t *testing.T) {
		repo := newFakeProductRepo()
		images := new(MockImageStorage)
		svc := NewProductService(repo, nil, images, testLog, ProductServiceConfig{})
		p := repo.add("Digester", entity.CategoryBiogas, 500)

		_, err := svc.UploadImage(ctx, p.ID, "notes.txt", "text/plain", []byte("x"))
		assert.ErrorIs(t, err, ErrValidation)
		images.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := newFakeProductRepo()
		images := new(MockImageStorage)
		svc := NewProductService(repo, nil, images, testLog, ProductServiceConfig{})
		p := repo.add("Digester", entity.CategoryBiogas, 500)
		images.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("bucket unavailable"))

		_, err := svc.UploadImage(ctx, p.ID, "unit.png", "image/png", []byte{1})
		assert.ErrorIs(t, err, ErrExternalService)
	})
}
