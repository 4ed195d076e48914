package handler

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cart service.CartService
	log  logger.Logger
}

func NewCartHandler(cart service.CartService, log logger.Logger) *CartHandler {
	return &CartHandler{cart: cart, log: log.Named("CartHTTPHandler")}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	cart, err := h.cart.GetOrCreateCart(r.Context(), p.UserID)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Cart retrieved", cart)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	cart, err := h.cart.AddItem(r.Context(), p.UserID, req.ProductID, quantity)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Item added to cart", cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	cart, err := h.cart.UpdateItemQuantity(r.Context(), p.UserID, chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Cart item updated", cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	cart, err := h.cart.RemoveItem(r.Context(), p.UserID, chi.URLParam(r, "productId"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Item removed from cart", cart)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	cart, err := h.cart.Clear(r.Context(), p.UserID)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Cart cleared", cart)
}

func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	summary, err := h.cart.Summary(r.Context(), p.UserID)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Cart summary retrieved", summary)
}
