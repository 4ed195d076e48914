package repository

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
)

type UpdateOrderStatusParams struct {
	OrderID      string
	Status       entity.OrderStatus
	AdminNotes   string
	DeliveryDate *time.Time
	Version      int
}

type UpdatePaymentStatusParams struct {
	OrderID       string
	PaymentStatus entity.PaymentStatus
	Version       int
}

type ListOrdersParams struct {
	UserID   string
	Status   string
	Search   string
	Page     int
	PageSize int
}

type ListOrdersResult struct {
	Orders      []entity.Order
	TotalCount  int64
	CurrentPage int
	PageSize    int
	TotalPages  int
}

type OrderRepository interface {
	// Create returns ErrAlreadyExists when another order already references
	// the same payment intent.
	Create(ctx context.Context, order *entity.Order) (string, error)
	GetByID(ctx context.Context, orderID string) (*entity.Order, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, params UpdateOrderStatusParams) error
	UpdatePaymentStatus(ctx context.Context, params UpdatePaymentStatusParams) error
	List(ctx context.Context, params ListOrdersParams) (*ListOrdersResult, error)
}
