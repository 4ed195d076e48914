package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestProductCache_SetGetDelete(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewProductCache(client)
	ctx := context.Background()

	product := &entity.Product{
		ID:       "p1",
		Name:     "Home Biogas 2m3",
		Category: entity.CategoryBiogas,
		Capacity: "2m3",
		Price:    45000,
	}
	require.NoError(t, cache.Set(ctx, product, time.Minute))
	assert.True(t, mr.Exists("product:p1"))

	got, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, product.Name, got.Name)
	assert.Equal(t, product.Price, got.Price)

	require.NoError(t, cache.Delete(ctx, "p1"))
	_, err = cache.Get(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductCache_Expires(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewProductCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &entity.Product{ID: "p2", Name: "Vermicompost", Price: 300}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "p2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProductCache_CorruptEntryIsDropped(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewProductCache(client)
	require.NoError(t, mr.Set("product:bad", "{not json"))

	_, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, mr.Exists("product:bad"))
}

func TestProductCache_SetRejectsEmptyID(t *testing.T) {
	_, client := setupTestRedis(t)
	cache := NewProductCache(client)

	assert.Error(t, cache.Set(context.Background(), &entity.Product{Name: "x"}, time.Minute))
	assert.Error(t, cache.Set(context.Background(), nil, time.Minute))
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	_, client := setupTestRedis(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := &slidingWindowLimiter{client: client, now: func() time.Time { return now }}
	ctx := context.Background()
	window := 15 * time.Minute

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "pwreset:a@example.com", 3, window)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
		now = now.Add(time.Minute)
	}

	ok, err := limiter.Allow(ctx, "pwreset:a@example.com", 3, window)
	require.NoError(t, err)
	assert.False(t, ok)

	// other keys are independent
	ok, err = limiter.Allow(ctx, "pwreset:b@example.com", 3, window)
	require.NoError(t, err)
	assert.True(t, ok)

	// first attempt falls out of the window
	now = now.Add(window - 2*time.Minute)
	ok, err = limiter.Allow(ctx, "pwreset:a@example.com", 3, window)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_RejectedAttemptsAreNotRecorded(t *testing.T) {
	mr, client := setupTestRedis(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := &slidingWindowLimiter{client: client, now: func() time.Time { return now }}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		now = now.Add(time.Millisecond)
	}

	members, err := mr.ZMembers("ratelimit:k")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}
