package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/port/payment"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type gateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	log           logger.Logger
}

// NewGateway builds a Stripe-backed payment gateway. Without a secret key
// every call fails with payment.ErrNotConfigured, so the rest of the
// storefront still starts.
func NewGateway(cfg config.StripeConfig, log logger.Logger) payment.Gateway {
	g := &gateway{
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		log:           log.Named("stripe"),
	}
	if cfg.SecretKey != "" {
		g.api = client.New(cfg.SecretKey, nil)
	} else {
		g.log.Warn("Stripe secret key is not set, card payments are disabled")
	}
	return g
}

func (g *gateway) ready() error {
	if g.api == nil {
		return payment.ErrNotConfigured
	}
	return nil
}

func toIntent(pi *stripe.PaymentIntent) *payment.Intent {
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       payment.IntentStatus(pi.Status),
		Metadata:     pi.Metadata,
	}
}

func toSession(s *stripe.CheckoutSession) *payment.Session {
	out := &payment.Session{
		ID:              s.ID,
		URL:             s.URL,
		Paid:            s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:     s.AmountTotal,
		ClientReference: s.ClientReferenceID,
		Metadata:        s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}

func (g *gateway) CreatePaymentIntent(ctx context.Context, params payment.CreateIntentParams) (*payment.Intent, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	p := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.Amount),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(p)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	g.log.Debugf("Created payment intent %s amount=%d %s", pi.ID, pi.Amount, pi.Currency)
	return toIntent(pi), nil
}

func (g *gateway) GetPaymentIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	p := &stripe.PaymentIntentParams{}
	p.Context = ctx
	pi, err := g.api.PaymentIntents.Get(intentID, p)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent %s: %w", intentID, err)
	}
	return toIntent(pi), nil
}

func (g *gateway) CreateCheckoutSession(ctx context.Context, params payment.CreateSessionParams) (*payment.Session, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, li := range params.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(params.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	p := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(g.successURL),
		CancelURL:          stripe.String(g.cancelURL),
		ClientReferenceID:  stripe.String(params.ClientReferenceID),
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(p)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return toSession(s), nil
}

func (g *gateway) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	p := &stripe.CheckoutSessionParams{}
	p.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, p)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session %s: %w", sessionID, err)
	}
	return toSession(s), nil
}

func (g *gateway) Refund(ctx context.Context, intentID string, amount int64) (*payment.Refund, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	p := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	if amount > 0 {
		p.Amount = stripe.Int64(amount)
	}
	p.Context = ctx
	// Replayed refunds of the same intent return the first refund.
	p.SetIdempotencyKey("refund-" + intentID)

	r, err := g.api.Refunds.New(p)
	if err != nil {
		return nil, fmt.Errorf("stripe: refund payment intent %s: %w", intentID, err)
	}
	g.log.Infof("Refund %s for intent %s status=%s", r.ID, intentID, r.Status)
	return &payment.Refund{ID: r.ID, Status: string(r.Status), Amount: r.Amount}, nil
}

func (g *gateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, payment.ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	out := &payment.WebhookEvent{Type: string(event.Type)}
	if out.Type != payment.EventCheckoutCompleted {
		return out, nil
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
	}
	out.Session = toSession(&s)
	return out, nil
}
