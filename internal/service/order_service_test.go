package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/nats"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func placeCODOrder(t *testing.T, sf *storefront, userID string) *entity.Order {
	t.Helper()
	ctx := context.Background()
	p := sf.products.add("Digester", entity.CategoryBiogas, 500)
	_, err := sf.cartService.AddItem(ctx, userID, p.ID, 1)
	require.NoError(t, err)
	res, err := sf.orderService.Checkout(ctx, userID, CheckoutInput{ShippingAddress: testAddress, PaymentMethod: "cash_on_delivery"})
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	return res.Order
}

func TestOrderService_CashOnDeliveryCheckout(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	digester := sf.products.add("Home Digester", entity.CategoryBiogas, 500)

	view, err := sf.cartService.AddItem(ctx, customer.UserID, digester.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), view.TotalAmount)

	view, err = sf.cartService.UpdateItemQuantity(ctx, customer.UserID, digester.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), view.TotalAmount)

	res, err := sf.orderService.Checkout(ctx, customer.UserID, CheckoutInput{
		ShippingAddress: testAddress,
		PaymentMethod:   "cash_on_delivery",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.False(t, res.PaymentRequired)

	order := res.Order
	assert.Equal(t, entity.StatusProcessing, order.Status)
	assert.Equal(t, int64(1500), order.TotalAmount)
	assert.Equal(t, entity.PaymentCashOnDelivery, order.PaymentMethod)
	assert.Equal(t, entity.PaymentPending, order.PaymentStatus)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Home Digester", order.Items[0].Name)
	assert.Equal(t, int64(1500), order.Items[0].Subtotal)

	cart, err := sf.cartService.GetOrCreateCart(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalAmount)

	assert.Equal(t, []string{nats.SubjectOrderCreated}, sf.publisher.subjects())
}

func TestOrderService_CheckoutKeepsItemsAddedDuringCheckout(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	digester := sf.products.add("Family Digester", entity.CategoryBiogas, 42000)
	compost := sf.products.add("Vermicompost", entity.CategoryFertilizer, 120)
	_, err := sf.cartService.AddItem(ctx, customer.UserID, digester.ID, 1)
	require.NoError(t, err)

	// Another tab adds to the cart after checkout read it.
	otherTab := NewCartService(sf.carts, sf.productService, testLog, CartServiceConfig{})
	sf.orders.onCreate = func() {
		sf.orders.onCreate = nil
		_, err := otherTab.AddItem(ctx, customer.UserID, compost.ID, 4)
		require.NoError(t, err)
		_, err = otherTab.AddItem(ctx, customer.UserID, digester.ID, 1)
		require.NoError(t, err)
	}

	res, err := sf.orderService.Checkout(ctx, customer.UserID, CheckoutInput{ShippingAddress: testAddress, PaymentMethod: "cash_on_delivery"})
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, 1, res.Order.Items[0].Quantity)

	cart, err := sf.cartService.GetOrCreateCart(ctx, customer.UserID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, digester.ID, cart.Items[0].ProductID)
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, compost.ID, cart.Items[1].ProductID)
	assert.Equal(t, 4, cart.Items[1].Quantity)
	assert.Equal(t, int64(42000+4*120), cart.TotalAmount)
}

func TestOrderService_CheckoutValidation(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()

	_, err := sf.orderService.Checkout(ctx, customer.UserID, CheckoutInput{ShippingAddress: testAddress, PaymentMethod: "barter"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = sf.orderService.Checkout(ctx, customer.UserID, CheckoutInput{ShippingAddress: entity.Address{City: "Pune"}, PaymentMethod: "cash_on_delivery"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = sf.orderService.Checkout(ctx, customer.UserID, CheckoutInput{ShippingAddress: testAddress, PaymentMethod: "cash_on_delivery"})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, sf.orders.count())
}

func TestOrderService_CardCheckoutDefersToPayment(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	p := sf.products.add("Compost", entity.CategoryFertilizer, 250)
	_, err := sf.cartService.AddItem(ctx, customer.UserID, p.ID, 2)
	require.NoError(t, err)

	res, err := sf.orderService.Checkout(ctx, customer.UserID, CheckoutInput{ShippingAddress: testAddress, PaymentMethod: "Card"})
	require.NoError(t, err)
	assert.True(t, res.PaymentRequired)
	assert.Equal(t, int64(500), res.AmountDue)
	assert.Nil(t, res.Order)
	assert.Zero(t, sf.orders.count())

	cart, err := sf.cartService.Summary(ctx, customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.TotalItems)
}

func TestOrderService_PlaceOrder(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	p := sf.products.add("Digester", entity.CategoryBiogas, 700)

	order, err := sf.orderService.PlaceOrder(ctx, customer.UserID, p.ID, testAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(700), order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, entity.PaymentCashOnDelivery, order.PaymentMethod)

	_, err = sf.orderService.PlaceOrder(ctx, customer.UserID, "missing", testAddress)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = sf.orderService.PlaceOrder(ctx, customer.UserID, p.ID, entity.Address{Street: "12 Farm Road"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 1, sf.orders.count())
}

func TestOrderService_SendsConfirmationEmail(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	mailer := new(MockEmailSender)
	sf.orderService = NewOrderService(sf.orders, sf.users, sf.cartService, sf.productService, sf.publisher, mailer, nil, testLog)

	userID, err := sf.users.Create(ctx, &entity.User{Name: "Asha", Email: "asha@example.com", Role: entity.RoleCustomer, Location: "Pune"})
	require.NoError(t, err)

	mailer.On("Send", mock.Anything, []string{"asha@example.com"},
		mock.MatchedBy(func(subject string) bool { return strings.HasPrefix(subject, "Order ORD-") }),
		"", mock.MatchedBy(func(body string) bool { return strings.Contains(body, "Total: 500") })).
		Return(nil).Once()

	placeCODOrder(t, sf, userID)
	mailer.AssertExpectations(t)
}

func TestOrderService_ListScoping(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	placeCODOrder(t, sf, customer.UserID)
	placeCODOrder(t, sf, intruder.UserID)

	own, err := sf.orderService.ListOrders(ctx, customer, ListOrdersFilter{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, own.Orders, 1)
	assert.Equal(t, customer.UserID, own.Orders[0].UserID)

	all, err := sf.orderService.ListOrders(ctx, admin, ListOrdersFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, all.Orders, 2)
	assert.Equal(t, int64(2), all.Pagination.TotalCount)

	delivered, err := sf.orderService.ListOrders(ctx, admin, ListOrdersFilter{Status: "delivered"}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, delivered.Orders)

	_, err = sf.orderService.ListOrders(ctx, admin, ListOrdersFilter{Status: "shipped"}, 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrderService_GetHidesForeignOrders(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	order := placeCODOrder(t, sf, customer.UserID)

	got, err := sf.orderService.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)

	_, err = sf.orderService.GetOrder(ctx, intruder, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = sf.orderService.GetOrder(ctx, admin, order.ID)
	assert.NoError(t, err)

	_, err = sf.orderService.GetOrder(ctx, admin, "order-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	order := placeCODOrder(t, sf, customer.UserID)

	_, err := sf.orderService.UpdateStatus(ctx, customer, order.ID, "Delivered", "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = sf.orderService.UpdateStatus(ctx, admin, order.ID, "Shipped", "")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := sf.orderService.UpdateStatus(ctx, admin, order.ID, "delivered", "left with neighbour")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDelivered, updated.Status)
	assert.Equal(t, "left with neighbour", updated.AdminNotes)
	assert.NotNil(t, updated.DeliveryDate)

	_, err = sf.orderService.UpdateStatus(ctx, admin, order.ID, "Cancelled", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrConflict)

	// Same status only touches the notes.
	updated, err = sf.orderService.UpdateStatus(ctx, admin, order.ID, "Delivered", "signed by owner")
	require.NoError(t, err)
	assert.Equal(t, "signed by owner", updated.AdminNotes)

	stored, err := sf.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDelivered, stored.Status)
	assert.Contains(t, sf.publisher.subjects(), nats.SubjectOrderStatusUpdated)
}

func TestOrderService_CancelOrder(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()

	t.Run("owner cancels processing order", func(t *testing.T) {
		order := placeCODOrder(t, sf, customer.UserID)
		cancelled, err := sf.orderService.CancelOrder(ctx, customer, order.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCancelled, cancelled.Status)
		assert.Contains(t, sf.publisher.subjects(), nats.SubjectOrderCancelled)

		_, err = sf.orderService.CancelOrder(ctx, customer, order.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		order := placeCODOrder(t, sf, customer.UserID)
		_, err := sf.orderService.UpdateStatus(ctx, admin, order.ID, "Delivered", "")
		require.NoError(t, err)

		_, err = sf.orderService.CancelOrder(ctx, customer, order.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("other customers see not found", func(t *testing.T) {
		order := placeCODOrder(t, sf, customer.UserID)
		_, err := sf.orderService.CancelOrder(ctx, intruder, order.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("admin cancels any order", func(t *testing.T) {
		order := placeCODOrder(t, sf, customer.UserID)
		_, err := sf.orderService.CancelOrder(ctx, admin, order.ID)
		assert.NoError(t, err)
	})
}

func TestReceiptService_GenerateReceipt(t *testing.T) {
	sf := newStorefront()
	ctx := context.Background()
	order := placeCODOrder(t, sf, customer.UserID)
	receipts := NewReceiptService(sf.orderService, testLog)

	body, name, err := receipts.GenerateReceipt(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "receipt_"+order.OrderNumber+".txt", name)
	assert.Contains(t, string(body), "Order: "+order.OrderNumber)
	assert.Contains(t, string(body), "Ship to: 12 Farm Road, Pune, IN")
	assert.Contains(t, string(body), "Total: 500")

	_, _, err = receipts.GenerateReceipt(ctx, intruder, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
