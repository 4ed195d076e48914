package entity

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems(t *testing.T) []OrderItem {
	t.Helper()
	item, err := NewOrderItem("p1", "Home Biogas Plant", 3, 500)
	require.NoError(t, err)
	return []OrderItem{item}
}

func TestNewOrder(t *testing.T) {
	order, err := NewOrder("user1", testItems(t), Address{Street: "1 Main", City: "Pune"}, PaymentCashOnDelivery)
	require.NoError(t, err)

	assert.Equal(t, StatusProcessing, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	assert.Equal(t, int64(1500), order.TotalAmount)
	assert.Equal(t, 1, order.Version)
	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`), order.OrderNumber)
}

func TestNewOrder_Invalid(t *testing.T) {
	_, err := NewOrder("", testItems(t), Address{}, PaymentCard)
	assert.Error(t, err)
	_, err = NewOrder("user1", nil, Address{}, PaymentCard)
	assert.Error(t, err)
	_, err = NewOrder("user1", testItems(t), Address{}, PaymentMethod("barter"))
	assert.Error(t, err)
}

func TestOrder_StatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"deliver processing", StatusProcessing, StatusDelivered, true},
		{"cancel processing", StatusProcessing, StatusCancelled, true},
		{"cancel delivered", StatusDelivered, StatusCancelled, false},
		{"reopen cancelled", StatusCancelled, StatusProcessing, false},
		{"deliver cancelled", StatusCancelled, StatusDelivered, false},
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			err := o.UpdateStatus(tt.to, now)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, o.Status)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, o.Status)
		})
	}
}

func TestOrder_DeliveredStampsDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := &Order{Status: StatusProcessing}
	require.NoError(t, o.UpdateStatus(StatusDelivered, now))
	require.NotNil(t, o.DeliveryDate)
	assert.Equal(t, now, *o.DeliveryDate)
	assert.False(t, o.CanBeCancelled())
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}

func TestAddress_Validate(t *testing.T) {
	assert.Error(t, Address{City: "Pune"}.Validate())
	assert.NoError(t, Address{Street: "1 Main", City: "Pune"}.Validate())
	assert.Equal(t, "1 Main, Pune, IN", Address{Street: "1 Main", City: "Pune", Country: "IN"}.String())
}
