package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/email"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
)

type CheckoutInput struct {
	ShippingAddress entity.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
}

type CheckoutResult struct {
	Order           *entity.Order `json:"order,omitempty"`
	PaymentRequired bool          `json:"paymentRequired"`
	AmountDue       int64         `json:"amountDue"`
}

type ListOrdersFilter struct {
	Status string
	Search string
}

type OrderList struct {
	Orders     []entity.Order `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// CartOrderParams describes an order materialized from the caller's cart.
type CartOrderParams struct {
	UserID          string
	Cart            *entity.Cart
	ShippingAddress entity.Address
	PaymentMethod   entity.PaymentMethod
	PaymentStatus   entity.PaymentStatus
	PaymentIntentID string
}

// OrderEvent is the payload published on every order subject.
type OrderEvent struct {
	OrderID       string               `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	UserID        string               `json:"user_id"`
	Status        entity.OrderStatus   `json:"status"`
	TotalAmount   int64                `json:"total_amount"`
	PaymentMethod entity.PaymentMethod `json:"payment_method"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newOrderEvent(o *entity.Order) OrderEvent {
	return OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        o.Status,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID, productID string, shipping entity.Address) (*entity.Order, error)
	Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error)
	CreateFromCart(ctx context.Context, params CartOrderParams) (*entity.Order, error)
	ListOrders(ctx context.Context, principal entity.Principal, filter ListOrdersFilter, page, pageSize int) (*OrderList, error)
	GetOrder(ctx context.Context, principal entity.Principal, orderID string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, principal entity.Principal, orderID, status, adminNotes string) (*entity.Order, error)
	CancelOrder(ctx context.Context, principal entity.Principal, orderID string) (*entity.Order, error)
}

type orderService struct {
	orderRepo    repository.OrderRepository
	userRepo     repository.UserRepository
	cartService  CartService
	products     ProductService
	msgPublisher nats.MessagePublisher
	mailer       email.EmailSender
	recorder     Recorder
	log          logger.Logger
}

// NewOrderService accepts a nil mailer and a nil recorder.
func NewOrderService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	cartService CartService,
	products ProductService,
	msgPublisher nats.MessagePublisher,
	mailer email.EmailSender,
	recorder Recorder,
	log logger.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		cartService:  cartService,
		products:     products,
		msgPublisher: msgPublisher,
		mailer:       mailer,
		recorder:     recorderOrNop(recorder),
		log:          log,
	}
}

type orderDraft struct {
	userID          string
	items           []entity.OrderItem
	shipping        entity.Address
	method          entity.PaymentMethod
	paymentStatus   entity.PaymentStatus
	paymentIntentID string
}

// createOrder is the only place orders are persisted.
func (s *orderService) createOrder(ctx context.Context, d orderDraft) (*entity.Order, error) {
	order, err := entity.NewOrder(d.userID, d.items, d.shipping, d.method)
	if err != nil {
		return nil, validationError("%v", err)
	}
	if d.paymentStatus != "" {
		order.PaymentStatus = d.paymentStatus
	}
	order.PaymentIntentID = d.paymentIntentID

	orderID, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			s.log.Warnf("Order for payment %s already exists", d.paymentIntentID)
			return nil, fmt.Errorf("%w: an order already exists for this payment", ErrConflict)
		}
		s.log.Errorf("Failed to save order for user ID %s: %v", d.userID, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	order.ID = orderID

	s.recorder.OrderPlaced(string(order.PaymentMethod))
	s.publish(ctx, nats.SubjectOrderCreated, order)
	s.sendConfirmation(ctx, order)

	s.log.Infof("Order %s (%s) placed for user ID %s, total=%d, payment=%s",
		order.ID, order.OrderNumber, order.UserID, order.TotalAmount, order.PaymentMethod)
	return order, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, userID, productID string, shipping entity.Address) (*entity.Order, error) {
	s.log.Infof("Placing direct order: UserID=%s, ProductID=%s", userID, productID)
	if err := shipping.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	item, err := entity.NewOrderItem(product.ID, product.Name, 1, product.Price)
	if err != nil {
		return nil, validationError("%v", err)
	}
	return s.createOrder(ctx, orderDraft{
		userID:        userID,
		items:         []entity.OrderItem{item},
		shipping:      shipping,
		method:        entity.PaymentCashOnDelivery,
		paymentStatus: entity.PaymentPending,
	})
}

func (s *orderService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*CheckoutResult, error) {
	method := entity.PaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod)))
	if !method.Valid() {
		return nil, validationError("payment method must be %q or %q", entity.PaymentCashOnDelivery, entity.PaymentCard)
	}
	if err := in.ShippingAddress.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	cart, err := s.cartService.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		s.log.Warnf("User ID %s attempted to check out an empty cart", userID)
		return nil, ErrEmptyCart
	}

	if method == entity.PaymentCard {
		return &CheckoutResult{PaymentRequired: true, AmountDue: cart.RecalculateTotal()}, nil
	}

	order, err := s.CreateFromCart(ctx, CartOrderParams{
		UserID:          userID,
		Cart:            cart,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   entity.PaymentCashOnDelivery,
		PaymentStatus:   entity.PaymentPending,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: order, AmountDue: order.TotalAmount}, nil
}

func (s *orderService) CreateFromCart(ctx context.Context, params CartOrderParams) (*entity.Order, error) {
	if params.Cart == nil || params.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(params.Cart.Items))
	for _, item := range params.Cart.Items {
		ids = append(ids, item.ProductID)
	}
	summaries, err := s.products.Summaries(ctx, ids)
	if err != nil {
		s.log.Warnf("Failed to load product names for order of user %s: %v", params.UserID, err)
		summaries = map[string]entity.ProductSummary{}
	}

	items := make([]entity.OrderItem, 0, len(params.Cart.Items))
	for _, cartItem := range params.Cart.Items {
		name := cartItem.ProductID
		if summary, ok := summaries[cartItem.ProductID]; ok {
			name = summary.Name
		}
		item, err := entity.NewOrderItem(cartItem.ProductID, name, cartItem.Quantity, cartItem.Price)
		if err != nil {
			return nil, validationError("invalid item in cart (product ID %s): %v", cartItem.ProductID, err)
		}
		items = append(items, item)
	}

	order, err := s.createOrder(ctx, orderDraft{
		userID:          params.UserID,
		items:           items,
		shipping:        params.ShippingAddress,
		method:          params.PaymentMethod,
		paymentStatus:   params.PaymentStatus,
		paymentIntentID: params.PaymentIntentID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cartService.RemoveOrdered(ctx, params.Cart); err != nil {
		s.log.Warnf("Failed to clear cart for user ID %s after placing order %s: %v", params.UserID, order.ID, err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, principal entity.Principal, filter ListOrdersFilter, page, pageSize int) (*OrderList, error) {
	page, pageSize = normalizePage(page, pageSize)
	params := repository.ListOrdersParams{
		Search:   strings.TrimSpace(filter.Search),
		Page:     page,
		PageSize: pageSize,
	}
	if !principal.Can(entity.CapViewAllOrders) {
		params.UserID = principal.UserID
	}
	if filter.Status != "" {
		status, err := entity.ParseOrderStatus(filter.Status)
		if err != nil {
			return nil, validationError("%v", err)
		}
		params.Status = string(status)
	}

	result, err := s.orderRepo.List(ctx, params)
	if err != nil {
		s.log.Errorf("Failed to list orders for user ID %s: %v", principal.UserID, err)
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	orders := result.Orders
	if orders == nil {
		orders = []entity.Order{}
	}
	return &OrderList{
		Orders:     orders,
		Pagination: newPagination(page, pageSize, result.TotalCount),
	}, nil
}

// loadVisible hides orders the principal may not see behind NotFound.
func (s *orderService) loadVisible(ctx context.Context, principal entity.Principal, orderID string, capability entity.Capability) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("order %s", orderID)
		}
		s.log.Errorf("Failed to get order %s: %v", orderID, err)
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	if !order.IsOwnedBy(principal.UserID) && !principal.Can(capability) {
		s.log.Warnf("User %s attempted to access order %s belonging to user %s", principal.UserID, orderID, order.UserID)
		return nil, notFoundError("order %s", orderID)
	}
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, principal entity.Principal, orderID string) (*entity.Order, error) {
	return s.loadVisible(ctx, principal, orderID, entity.CapViewAllOrders)
}

func (s *orderService) UpdateStatus(ctx context.Context, principal entity.Principal, orderID, status, adminNotes string) (*entity.Order, error) {
	if !principal.Can(entity.CapManageOrders) {
		return nil, ErrForbidden
	}
	next, err := entity.ParseOrderStatus(status)
	if err != nil {
		return nil, validationError("%v", err)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("order %s", orderID)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	s.log.Infof("Admin %s updating status of order %s: %s -> %s", principal.UserID, orderID, order.Status, next)
	if order.Status != next {
		if err := order.UpdateStatus(next, time.Now()); err != nil {
			return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, order.Status, next)
		}
	}
	if adminNotes != "" {
		order.AdminNotes = adminNotes
	}

	if err := s.saveStatus(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, nats.SubjectOrderStatusUpdated, order)
	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, principal entity.Principal, orderID string) (*entity.Order, error) {
	s.log.Infof("User %s attempting to cancel order %s", principal.UserID, orderID)
	order, err := s.loadVisible(ctx, principal, orderID, entity.CapManageOrders)
	if err != nil {
		return nil, err
	}

	if !order.CanBeCancelled() {
		s.log.Warnf("Order %s cannot be cancelled at status %s", orderID, order.Status)
		return nil, fmt.Errorf("%w (status %s)", ErrInvalidState, order.Status)
	}
	if err := order.UpdateStatus(entity.StatusCancelled, time.Now()); err != nil {
		return nil, fmt.Errorf("%w (status %s)", ErrInvalidState, order.Status)
	}

	if err := s.saveStatus(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, nats.SubjectOrderCancelled, order)
	s.log.Infof("Order %s cancelled by user %s", orderID, principal.UserID)
	return order, nil
}

func (s *orderService) saveStatus(ctx context.Context, order *entity.Order) error {
	err := s.orderRepo.UpdateStatus(ctx, repository.UpdateOrderStatusParams{
		OrderID:      order.ID,
		Status:       order.Status,
		AdminNotes:   order.AdminNotes,
		DeliveryDate: order.DeliveryDate,
		Version:      order.Version,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFoundError("order %s", order.ID)
		case errors.Is(err, repository.ErrOptimisticLock):
			return fmt.Errorf("%w: order was modified concurrently, please retry", ErrConflict)
		}
		s.log.Errorf("Failed to save status for order %s: %v", order.ID, err)
		return fmt.Errorf("failed to update order status: %w", err)
	}
	order.Version++
	return nil
}

func (s *orderService) publish(ctx context.Context, subject string, order *entity.Order) {
	if err := s.msgPublisher.Publish(ctx, subject, newOrderEvent(order)); err != nil {
		s.log.Warnf("Failed to publish %s event for order ID %s: %v", subject, order.ID, err)
	}
}

func (s *orderService) sendConfirmation(ctx context.Context, order *entity.Order) {
	if s.mailer == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		s.log.Warnf("Order confirmation for %s skipped, user lookup failed: %v", order.ID, err)
		return
	}

	subject := fmt.Sprintf("Order %s confirmed", order.OrderNumber)
	body := renderReceipt(order)
	if err := s.mailer.Send(ctx, []string{user.Email}, subject, "", body); err != nil {
		s.log.Warnf("Failed to send order confirmation for %s to %s: %v", order.ID, user.Email, err)
	}
}
