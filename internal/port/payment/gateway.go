package payment

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when the processor has no secret key.
var ErrNotConfigured = errors.New("payment processor is not configured")

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

type IntentStatus string

const (
	IntentSucceeded             IntentStatus = "succeeded"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentCanceled              IntentStatus = "canceled"
)

type CreateIntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
}

type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type CreateSessionParams struct {
	Currency          string
	LineItems         []LineItem
	ClientReferenceID string
	Metadata          map[string]string
}

type Session struct {
	ID              string
	URL             string
	Paid            bool
	AmountTotal     int64
	PaymentIntentID string
	ClientReference string
	Metadata        map[string]string
}

type Refund struct {
	ID     string
	Status string
	Amount int64
}

// EventCheckoutCompleted is the only webhook event the storefront acts on.
const EventCheckoutCompleted = "checkout.session.completed"

type WebhookEvent struct {
	Type    string
	Session *Session
}

type Gateway interface {
	CreatePaymentIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error)
	Refund(ctx context.Context, intentID string, amount int64) (*Refund, error)
	// ParseWebhook verifies the signature header and decodes the event.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
