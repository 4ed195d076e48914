package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	maxWebhookBody        = 64 << 10
)

type PaymentHandler struct {
	payments service.PaymentService
	log      logger.Logger
}

func NewPaymentHandler(payments service.PaymentService, log logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log.Named("PaymentHTTPHandler")}
}

type shippingRequest struct {
	ShippingAddress entity.Address `json:"shippingAddress"`
}

func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req shippingRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	res, err := h.payments.CreatePaymentIntent(r.Context(), p.UserID, req.ShippingAddress)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Payment intent created", res)
}

type confirmPaymentRequest struct {
	PaymentIntentID string         `json:"paymentIntentId"`
	ShippingAddress entity.Address `json:"shippingAddress"`
}

func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	order, err := h.payments.ConfirmPayment(r.Context(), p.UserID, req.PaymentIntentID, req.ShippingAddress)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, "Payment confirmed and order placed", order)
}

func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req shippingRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	res, err := h.payments.CreateCheckoutSession(r.Context(), p.UserID, req.ShippingAddress)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Checkout session created", res)
}

type confirmSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *PaymentHandler) ConfirmCheckoutSession(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req confirmSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	order, err := h.payments.ConfirmCheckoutSession(r.Context(), p.UserID, req.SessionID)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Checkout session confirmed", order)
}

// Webhook needs the raw body for signature verification.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.FromError(w, h.log, fmt.Errorf("%w: could not read webhook body", service.ErrValidation))
		return
	}
	if err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get(stripeSignatureHeader)); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Webhook received", nil)
}

func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	order, err := h.payments.Refund(r.Context(), p, chi.URLParam(r, "orderId"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Payment refunded", order)
}
