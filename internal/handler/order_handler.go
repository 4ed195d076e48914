package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orders   service.OrderService
	receipts service.ReceiptService
	log      logger.Logger
}

func NewOrderHandler(orders service.OrderService, receipts service.ReceiptService, log logger.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, receipts: receipts, log: log.Named("OrderHTTPHandler")}
}

type placeOrderRequest struct {
	ProductID       string         `json:"productId"`
	ShippingAddress entity.Address `json:"shippingAddress"`
}

// PlaceOrder buys a single unit of one product, paid on delivery.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	order, err := h.orders.PlaceOrder(r.Context(), p.UserID, req.ProductID, req.ShippingAddress)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, "Order placed successfully", order)
}

func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req service.CheckoutInput
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	res, err := h.orders.Checkout(r.Context(), p.UserID, req)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	if res.PaymentRequired {
		response.OK(w, "Card payment required to complete the order", res)
		return
	}
	response.Created(w, "Order placed successfully", res)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	page, limit := pageParams(r)
	filter := service.ListOrdersFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
	}
	list, err := h.orders.ListOrders(r.Context(), p, filter, page, limit)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Orders retrieved", list)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	order, err := h.orders.GetOrder(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Order retrieved", order)
}

func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	body, fileName, err := h.receipts.GenerateReceipt(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type updateStatusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	order, err := h.orders.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), req.Status, req.AdminNotes)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Order status updated", order)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	order, err := h.orders.CancelOrder(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, "Order cancelled", order)
}
