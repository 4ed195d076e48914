package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/port/payment"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
)

const (
	metaUserID          = "user_id"
	metaShippingAddress = "shipping_address"

	defaultCurrency         = "inr"
	defaultAmountMultiplier = 100
)

type PaymentIntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type CheckoutSessionResult struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PaymentEvent is published on payment subjects.
type PaymentEvent struct {
	OrderID         string `json:"order_id"`
	UserID          string `json:"user_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, userID string, shipping entity.Address) (*PaymentIntentResult, error)
	ConfirmPayment(ctx context.Context, userID, paymentIntentID string, shipping entity.Address) (*entity.Order, error)
	CreateCheckoutSession(ctx context.Context, userID string, shipping entity.Address) (*CheckoutSessionResult, error)
	ConfirmCheckoutSession(ctx context.Context, userID, sessionID string) (*entity.Order, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	Refund(ctx context.Context, principal entity.Principal, orderID string) (*entity.Order, error)
}

type PaymentServiceConfig struct {
	Currency         string
	AmountMultiplier int64
}

type paymentService struct {
	gateway      payment.Gateway
	orderRepo    repository.OrderRepository
	orders       OrderService
	cartService  CartService
	products     ProductService
	msgPublisher nats.MessagePublisher
	recorder     Recorder
	log          logger.Logger
	currency     string
	multiplier   int64
}

func NewPaymentService(
	gateway payment.Gateway,
	orderRepo repository.OrderRepository,
	orders OrderService,
	cartService CartService,
	products ProductService,
	msgPublisher nats.MessagePublisher,
	recorder Recorder,
	log logger.Logger,
	cfg PaymentServiceConfig,
) PaymentService {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	multiplier := cfg.AmountMultiplier
	if multiplier <= 0 {
		multiplier = defaultAmountMultiplier
	}
	return &paymentService{
		gateway:      gateway,
		orderRepo:    orderRepo,
		orders:       orders,
		cartService:  cartService,
		products:     products,
		msgPublisher: msgPublisher,
		recorder:     recorderOrNop(recorder),
		log:          log,
		currency:     currency,
		multiplier:   multiplier,
	}
}

func (s *paymentService) gatewayError(op string, err error) error {
	if errors.Is(err, payment.ErrNotConfigured) {
		s.log.Errorf("Payment %s attempted without processor credentials", op)
		return fmt.Errorf("%w: payment processor", ErrMisconfigured)
	}
	s.log.Errorf("Payment processor %s failed: %v", op, err)
	return fmt.Errorf("%w: payment processor %s failed", ErrExternalService, op)
}

func (s *paymentService) loadCart(ctx context.Context, userID string) (*entity.Cart, error) {
	cart, err := s.cartService.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	cart.RecalculateTotal()
	return cart, nil
}

func (s *paymentService) metadata(userID string, shipping entity.Address) map[string]string {
	meta := map[string]string{metaUserID: userID}
	if raw, err := json.Marshal(shipping); err == nil {
		meta[metaShippingAddress] = string(raw)
	}
	return meta
}

func shippingFromMetadata(meta map[string]string) entity.Address {
	var addr entity.Address
	if raw, ok := meta[metaShippingAddress]; ok {
		_ = json.Unmarshal([]byte(raw), &addr)
	}
	return addr
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, userID string, shipping entity.Address) (*PaymentIntentResult, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	amount := cart.TotalAmount * s.multiplier
	intent, err := s.gateway.CreatePaymentIntent(ctx, payment.CreateIntentParams{
		Amount:   amount,
		Currency: s.currency,
		Metadata: s.metadata(userID, shipping),
	})
	if err != nil {
		return nil, s.gatewayError("create intent", err)
	}

	s.log.Infof("Payment intent %s created for user %s, amount=%d %s", intent.ID, userID, amount, s.currency)
	return &PaymentIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        s.currency,
	}, nil
}

// ConfirmPayment creates the order only for a succeeded intent owned by the
// caller whose amount matches the current cart. One order per intent.
func (s *paymentService) ConfirmPayment(ctx context.Context, userID, paymentIntentID string, shipping entity.Address) (*entity.Order, error) {
	if strings.TrimSpace(paymentIntentID) == "" {
		return nil, validationError("paymentIntentId is required")
	}
	s.log.Infof("Confirming payment %s for user %s", paymentIntentID, userID)

	if err := s.ensureNoOrderFor(ctx, paymentIntentID); err != nil {
		s.recorder.PaymentConfirmation("duplicate")
		return nil, err
	}

	intent, err := s.gateway.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, s.gatewayError("retrieve intent", err)
	}
	if intent.Metadata[metaUserID] != userID {
		s.log.Warnf("User %s tried to confirm payment %s owned by %q", userID, paymentIntentID, intent.Metadata[metaUserID])
		s.recorder.PaymentConfirmation("foreign")
		return nil, ErrPaymentNotConfirmed
	}
	if intent.Status != payment.IntentSucceeded {
		s.log.Warnf("Payment %s not succeeded (status %s), no order created", paymentIntentID, intent.Status)
		s.recorder.PaymentConfirmation("not_succeeded")
		return nil, fmt.Errorf("%w (status %s)", ErrPaymentNotConfirmed, intent.Status)
	}

	if shipping == (entity.Address{}) {
		shipping = shippingFromMetadata(intent.Metadata)
	}
	order, err := s.materialize(ctx, userID, intent.ID, intent.Amount, shipping)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *paymentService) ensureNoOrderFor(ctx context.Context, paymentIntentID string) error {
	existing, err := s.orderRepo.GetByPaymentIntentID(ctx, paymentIntentID)
	if err == nil {
		s.log.Warnf("Payment %s already materialized as order %s", paymentIntentID, existing.ID)
		return fmt.Errorf("%w: payment has already been confirmed", ErrConflict)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("could not check existing orders: %w", err)
	}
	return nil
}

// materialize turns the caller's cart into a paid card order.
func (s *paymentService) materialize(ctx context.Context, userID, paymentIntentID string, paidAmount int64, shipping entity.Address) (*entity.Order, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if expected := cart.TotalAmount * s.multiplier; expected != paidAmount {
		s.log.Warnf("Payment %s amount %d does not match cart total %d", paymentIntentID, paidAmount, expected)
		s.recorder.PaymentConfirmation("amount_mismatch")
		return nil, fmt.Errorf("%w: paid amount does not match the cart", ErrPaymentNotConfirmed)
	}

	order, err := s.orders.CreateFromCart(ctx, CartOrderParams{
		UserID:          userID,
		Cart:            cart,
		ShippingAddress: shipping,
		PaymentMethod:   entity.PaymentCard,
		PaymentStatus:   entity.PaymentPaid,
		PaymentIntentID: paymentIntentID,
	})
	if err != nil {
		return nil, err
	}

	s.recorder.PaymentConfirmation("succeeded")
	s.publish(ctx, nats.SubjectPaymentConfirmed, PaymentEvent{
		OrderID:         order.ID,
		UserID:          userID,
		PaymentIntentID: paymentIntentID,
		Amount:          paidAmount,
		Currency:        s.currency,
	})
	return order, nil
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, userID string, shipping entity.Address) (*CheckoutSessionResult, error) {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	summaries, err := s.products.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	lineItems := make([]payment.LineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		name := item.ProductID
		if summary, ok := summaries[item.ProductID]; ok {
			name = summary.Name
		}
		lineItems = append(lineItems, payment.LineItem{
			Name:       name,
			UnitAmount: item.Price * s.multiplier,
			Quantity:   int64(item.Quantity),
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CreateSessionParams{
		Currency:          s.currency,
		LineItems:         lineItems,
		ClientReferenceID: userID,
		Metadata:          s.metadata(userID, shipping),
	})
	if err != nil {
		return nil, s.gatewayError("create checkout session", err)
	}
	s.log.Infof("Checkout session %s created for user %s", session.ID, userID)
	return &CheckoutSessionResult{SessionID: session.ID, URL: session.URL}, nil
}

func (s *paymentService) ConfirmCheckoutSession(ctx context.Context, userID, sessionID string) (*entity.Order, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, validationError("sessionId is required")
	}
	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, s.gatewayError("retrieve checkout session", err)
	}
	if session.Metadata[metaUserID] != userID {
		s.recorder.PaymentConfirmation("foreign")
		return nil, ErrPaymentNotConfirmed
	}
	if !session.Paid {
		s.recorder.PaymentConfirmation("not_succeeded")
		return nil, ErrPaymentNotConfirmed
	}
	return s.materializeSession(ctx, session)
}

// materializeSession is idempotent: a session already turned into an order
// returns that order.
func (s *paymentService) materializeSession(ctx context.Context, session *payment.Session) (*entity.Order, error) {
	reference := session.PaymentIntentID
	if reference == "" {
		reference = session.ID
	}
	existing, err := s.orderRepo.GetByPaymentIntentID(ctx, reference)
	if err == nil {
		s.log.Infof("Checkout session %s already materialized as order %s", session.ID, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("could not check existing orders: %w", err)
	}

	userID := session.Metadata[metaUserID]
	if userID == "" {
		userID = session.ClientReference
	}
	order, err := s.materialize(ctx, userID, reference, session.AmountTotal, shippingFromMetadata(session.Metadata))
	if errors.Is(err, ErrConflict) {
		// Lost a race with a concurrent confirmation of the same session.
		if existing, findErr := s.orderRepo.GetByPaymentIntentID(ctx, reference); findErr == nil {
			return existing, nil
		}
	}
	return order, err
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return fmt.Errorf("%w: webhook secret", ErrMisconfigured)
		}
		s.log.Warnf("Rejected webhook: %v", err)
		return validationError("invalid webhook signature or payload")
	}

	if event.Type != payment.EventCheckoutCompleted || event.Session == nil {
		s.log.Debugf("Ignoring webhook event %s", event.Type)
		return nil
	}
	if !event.Session.Paid {
		s.log.Infof("Checkout session %s completed without payment, skipping", event.Session.ID)
		return nil
	}

	order, err := s.materializeSession(ctx, event.Session)
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			s.log.Warnf("Webhook for session %s not materialized: %v", event.Session.ID, err)
			return nil
		case errors.Is(err, ErrValidation):
			return s.refundUnmatched(ctx, event.Session, err)
		}
		return err
	}
	s.log.Infof("Webhook materialized session %s as order %s", event.Session.ID, order.ID)
	return nil
}

// refundUnmatched returns the money of a paid session that cannot become an
// order, for example when the cart changed after payment.
func (s *paymentService) refundUnmatched(ctx context.Context, session *payment.Session, cause error) error {
	s.log.Errorf("Paid checkout session %s cannot become an order: %v", session.ID, cause)
	s.recorder.PaymentConfirmation("refunded_unmatched")
	if session.PaymentIntentID == "" {
		s.log.Errorf("Checkout session %s has no payment intent, refund it by hand", session.ID)
		return nil
	}

	refund, err := s.gateway.Refund(ctx, session.PaymentIntentID, session.AmountTotal)
	if err != nil {
		return s.gatewayError("refund unmatched payment", err)
	}
	s.log.Warnf("Refunded %d for checkout session %s (refund %s)", session.AmountTotal, session.ID, refund.ID)
	s.publish(ctx, nats.SubjectPaymentRefunded, PaymentEvent{
		UserID:          session.Metadata[metaUserID],
		PaymentIntentID: session.PaymentIntentID,
		Amount:          session.AmountTotal,
		Currency:        s.currency,
	})
	return nil
}

func (s *paymentService) Refund(ctx context.Context, principal entity.Principal, orderID string) (*entity.Order, error) {
	if !principal.Can(entity.CapIssueRefunds) {
		return nil, ErrForbidden
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("order %s", orderID)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	if order.PaymentIntentID == "" {
		return nil, notFoundError("no payment linked to order %s", orderID)
	}
	if order.PaymentStatus == entity.PaymentRefunded {
		return nil, fmt.Errorf("%w: order has already been refunded", ErrConflict)
	}

	amount := order.TotalAmount * s.multiplier
	refund, err := s.gateway.Refund(ctx, order.PaymentIntentID, amount)
	if err != nil {
		return nil, s.gatewayError("refund", err)
	}

	err = s.orderRepo.UpdatePaymentStatus(ctx, repository.UpdatePaymentStatusParams{
		OrderID:       order.ID,
		PaymentStatus: entity.PaymentRefunded,
		Version:       order.Version,
	})
	if err != nil {
		// The processor already refunded; the record must be fixed by hand.
		s.log.Errorf("Refund %s issued but order %s not updated: %v", refund.ID, order.ID, err)
		return nil, fmt.Errorf("refund issued but order update failed: %w", err)
	}
	order.PaymentStatus = entity.PaymentRefunded
	order.Version++

	s.log.Infof("Admin %s refunded order %s (refund %s, amount %d)", principal.UserID, order.ID, refund.ID, amount)
	s.publish(ctx, nats.SubjectPaymentRefunded, PaymentEvent{
		OrderID:         order.ID,
		UserID:          order.UserID,
		PaymentIntentID: order.PaymentIntentID,
		Amount:          amount,
		Currency:        s.currency,
	})
	return order, nil
}

func (s *paymentService) publish(ctx context.Context, subject string, event PaymentEvent) {
	if err := s.msgPublisher.Publish(ctx, subject, event); err != nil {
		s.log.Warnf("Failed to publish %s event for order %s: %v", subject, event.OrderID, err)
	}
}
