package repository

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
)

type CartRepository interface {
	// GetOrCreate returns the user's cart, inserting an empty one if absent.
	GetOrCreate(ctx context.Context, userID string) (*entity.Cart, error)
	// Save recomputes the total and writes the cart if its version is unchanged,
	// returning ErrOptimisticLock otherwise. The cart's Version is bumped on success.
	Save(ctx context.Context, cart *entity.Cart) error
}
