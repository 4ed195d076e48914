package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

var validTransitions = map[OrderStatus][]OrderStatus{
	StatusProcessing: {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for status := range validTransitions {
		if strings.EqualFold(string(status), s) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCard           PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCard
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Address struct {
	FullName   string `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Street     string `bson:"street,omitempty" json:"street,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postal_code,omitempty" json:"postal_code,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
}

func (a Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" {
		return errors.New("shipping address requires street and city")
	}
	return nil
}

func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type OrderItem struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	UnitPrice int64  `bson:"unit_price" json:"unit_price"`
	Subtotal  int64  `bson:"subtotal" json:"subtotal"`
}

func NewOrderItem(productID, name string, quantity int, unitPrice int64) (OrderItem, error) {
	if productID == "" {
		return OrderItem{}, errors.New("product ID cannot be empty")
	}
	if quantity < 1 {
		return OrderItem{}, ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return OrderItem{}, errors.New("unit price cannot be negative")
	}
	return OrderItem{
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice * int64(quantity),
	}, nil
}

type Order struct {
	ID              string        `bson:"_id,omitempty" json:"id"`
	OrderNumber     string        `bson:"order_number" json:"order_number"`
	UserID          string        `bson:"user_id" json:"user_id"`
	Items           []OrderItem   `bson:"items" json:"items"`
	TotalAmount     int64         `bson:"total_amount" json:"total_amount"`
	Status          OrderStatus   `bson:"status" json:"status"`
	ShippingAddress Address       `bson:"shipping_address" json:"shipping_address"`
	PaymentMethod   PaymentMethod `bson:"payment_method" json:"payment_method"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"payment_status"`
	PaymentIntentID string        `bson:"payment_intent_id,omitempty" json:"payment_intent_id,omitempty"`
	AdminNotes      string        `bson:"admin_notes,omitempty" json:"admin_notes,omitempty"`
	DeliveryDate    *time.Time    `bson:"delivery_date,omitempty" json:"delivery_date,omitempty"`
	Version         int           `bson:"version" json:"-"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updated_at"`
}

func NewOrder(userID string, items []OrderItem, shipping Address, method PaymentMethod) (*Order, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}
	if !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}

	now := time.Now().UTC()
	order := &Order{
		OrderNumber:     NewOrderNumber(now),
		UserID:          userID,
		Items:           items,
		Status:          StatusProcessing,
		ShippingAddress: shipping,
		PaymentMethod:   method,
		PaymentStatus:   PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
	order.CalculateTotalAmount()
	return order, nil
}

// NewOrderNumber renders e.g. ORD-20240131-1A2B3C4D.
func NewOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), suffix)
}

func (o *Order) CalculateTotalAmount() {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal
	}
	o.TotalAmount = total
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusProcessing
}

func (o *Order) CanTransitionTo(next OrderStatus) bool {
	for _, s := range validTransitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// UpdateStatus applies next if the transition table allows it. Delivering
// stamps the delivery date.
func (o *Order) UpdateStatus(next OrderStatus, now time.Time) error {
	if !o.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	if next == StatusDelivered {
		delivered := now.UTC()
		o.DeliveryDate = &delivered
	}
	o.UpdatedAt = now.UTC()
	return nil
}

func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID == userID
}
