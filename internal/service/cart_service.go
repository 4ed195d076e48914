package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
)

const defaultCartMaxRetries = 3

type CartLine struct {
	ProductID string                 `json:"product_id"`
	Product   *entity.ProductSummary `json:"product,omitempty"`
	Quantity  int                    `json:"quantity"`
	Price     int64                  `json:"price"`
	Subtotal  int64                  `json:"subtotal"`
	AddedAt   time.Time              `json:"added_at"`
}

type CartView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	IsActive    bool       `json:"is_active"`
	Items       []CartLine `json:"items"`
	TotalAmount int64      `json:"totalAmount"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CartSummary struct {
	TotalItems  int   `json:"totalItems"`
	TotalAmount int64 `json:"totalAmount"`
	ItemCount   int   `json:"itemCount"`
}

type CartService interface {
	GetOrCreateCart(ctx context.Context, userID string) (*CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (*CartView, error)
	Clear(ctx context.Context, userID string) (*CartView, error)
	Summary(ctx context.Context, userID string) (*CartSummary, error)
	// ActiveCart returns the stored cart without display enrichment.
	ActiveCart(ctx context.Context, userID string) (*entity.Cart, error)
	// RemoveOrdered takes the lines of an ordered snapshot out of the cart.
	// Items added after the snapshot was read stay in the cart.
	RemoveOrdered(ctx context.Context, snapshot *entity.Cart) error
}

type CartServiceConfig struct {
	MaxRetries int
}

type cartService struct {
	cartRepo   repository.CartRepository
	products   ProductService
	log        logger.Logger
	maxRetries int
}

func NewCartService(
	cartRepo repository.CartRepository,
	products ProductService,
	log logger.Logger,
	cfg CartServiceConfig,
) CartService {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultCartMaxRetries
	}
	return &cartService{
		cartRepo:   cartRepo,
		products:   products,
		log:        log,
		maxRetries: maxRetries,
	}
}

// mutate loads the cart, applies fn and saves it, reloading and reapplying fn
// when another request saved the cart in between. fn reports whether it
// changed anything; unchanged carts are not written.
func (s *cartService) mutate(ctx context.Context, userID string, fn func(*entity.Cart) (bool, error)) (*entity.Cart, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		cart, err := s.cartRepo.GetOrCreate(ctx, userID)
		if err != nil {
			s.log.Errorf("Error getting cart for user %s: %v", userID, err)
			return nil, fmt.Errorf("could not retrieve cart: %w", err)
		}

		changed, err := fn(cart)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cart, nil
		}

		err = s.cartRepo.Save(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, repository.ErrOptimisticLock) {
			s.log.Errorf("Error saving cart for user %s: %v", userID, err)
			return nil, fmt.Errorf("could not save cart: %w", err)
		}
		s.log.Warnf("Cart for user %s changed concurrently (attempt %d/%d), retrying", userID, attempt, s.maxRetries)
	}
	return nil, fmt.Errorf("%w: cart was modified concurrently, please retry", ErrConflict)
}

func (s *cartService) view(ctx context.Context, cart *entity.Cart) (*CartView, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	summaries, err := s.products.Summaries(ctx, ids)
	if err != nil {
		s.log.Warnf("Failed to populate products for cart of user %s: %v", cart.UserID, err)
		summaries = map[string]entity.ProductSummary{}
	}

	view := &CartView{
		ID:          cart.ID,
		UserID:      cart.UserID,
		IsActive:    cart.IsActive,
		Items:       make([]CartLine, 0, len(cart.Items)),
		TotalAmount: cart.RecalculateTotal(),
		UpdatedAt:   cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		line := CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Price * int64(item.Quantity),
			AddedAt:   item.AddedAt,
		}
		if summary, ok := summaries[item.ProductID]; ok {
			summary := summary
			line.Product = &summary
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}

func (s *cartService) GetOrCreateCart(ctx context.Context, userID string) (*CartView, error) {
	s.log.Debugf("Getting cart for user: UserID=%s", userID)
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		s.log.Errorf("Error getting cart for user %s: %v", userID, err)
		return nil, fmt.Errorf("could not retrieve cart: %w", err)
	}
	return s.view(ctx, cart)
}

func (s *cartService) ActiveCart(ctx context.Context, userID string) (*entity.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	s.log.Infof("Adding item to cart: UserID=%s, ProductID=%s, Quantity=%d", userID, productID, quantity)
	if quantity < 1 {
		return nil, validationError("quantity must be at least 1")
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.mutate(ctx, userID, func(c *entity.Cart) (bool, error) {
		if err := c.AddItem(product.ID, product.Price, quantity); err != nil {
			return false, validationError("%v", err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Infof("Item added to cart for user %s, total=%d", userID, cart.TotalAmount)
	return s.view(ctx, cart)
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	s.log.Infof("Updating item quantity: UserID=%s, ProductID=%s, Quantity=%d", userID, productID, quantity)
	if quantity < 1 {
		return nil, validationError("quantity must be at least 1")
	}

	cart, err := s.mutate(ctx, userID, func(c *entity.Cart) (bool, error) {
		if err := c.UpdateItemQuantity(productID, quantity); err != nil {
			if errors.Is(err, entity.ErrItemNotInCart) {
				return false, notFoundError("product %s is not in the cart", productID)
			}
			return false, validationError("%v", err)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (*CartView, error) {
	s.log.Infof("Removing item from cart: UserID=%s, ProductID=%s", userID, productID)
	cart, err := s.mutate(ctx, userID, func(c *entity.Cart) (bool, error) {
		return c.RemoveItem(productID), nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *cartService) Clear(ctx context.Context, userID string) (*CartView, error) {
	s.log.Infof("Clearing cart for user: UserID=%s", userID)
	cart, err := s.mutate(ctx, userID, func(c *entity.Cart) (bool, error) {
		if c.IsEmpty() && c.TotalAmount == 0 {
			return false, nil
		}
		c.Clear()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *cartService) RemoveOrdered(ctx context.Context, snapshot *entity.Cart) error {
	emptied := *snapshot
	emptied.Clear()
	err := s.cartRepo.Save(ctx, &emptied)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrOptimisticLock) {
		s.log.Errorf("Error clearing ordered cart for user %s: %v", snapshot.UserID, err)
		return fmt.Errorf("could not save cart: %w", err)
	}

	s.log.Infof("Cart for user %s changed during checkout, removing ordered lines only", snapshot.UserID)
	_, err = s.mutate(ctx, snapshot.UserID, func(c *entity.Cart) (bool, error) {
		return c.Subtract(snapshot.Items), nil
	})
	return err
}

func (s *cartService) Summary(ctx context.Context, userID string) (*CartSummary, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("could not retrieve cart: %w", err)
	}
	return &CartSummary{
		TotalItems:  cart.TotalQuantity(),
		TotalAmount: cart.RecalculateTotal(),
		ItemCount:   len(cart.Items),
	}, nil
}
