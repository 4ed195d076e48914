package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
)

type ReceiptService interface {
	// GenerateReceipt returns a plain-text receipt and its file name.
	GenerateReceipt(ctx context.Context, principal entity.Principal, orderID string) ([]byte, string, error)
}

type receiptService struct {
	orders OrderService
	log    logger.Logger
}

func NewReceiptService(orders OrderService, log logger.Logger) ReceiptService {
	return &receiptService{orders: orders, log: log}
}

func (s *receiptService) GenerateReceipt(ctx context.Context, principal entity.Principal, orderID string) ([]byte, string, error) {
	s.log.Infof("Generating receipt for order ID: %s, requested by User ID: %s", orderID, principal.UserID)
	order, err := s.orders.GetOrder(ctx, principal, orderID)
	if err != nil {
		return nil, "", err
	}
	return []byte(renderReceipt(order)), fmt.Sprintf("receipt_%s.txt", order.OrderNumber), nil
}

func renderReceipt(o *entity.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order: %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Date: %s\n", o.CreatedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Status: %s\n", o.Status)
	fmt.Fprintf(&b, "Payment: %s (%s)\n", o.PaymentMethod, o.PaymentStatus)
	if addr := o.ShippingAddress.String(); addr != "" {
		fmt.Fprintf(&b, "Ship to: %s\n", addr)
	}
	b.WriteString("\nItems:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "- %s (x%d) @ %d = %d\n", item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
	}
	fmt.Fprintf(&b, "\nTotal: %d\n", o.TotalAmount)
	return b.String()
}
