package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/port/payment"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"github.com/stretchr/testify/mock"
)

var testLog = logger.NewNop()

type fakeProductRepo struct {
	mu       sync.Mutex
	seq      int
	products map[string]entity.Product
	gets     int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]entity.Product{}}
}

func (r *fakeProductRepo) add(name string, category entity.Category, price int64) *entity.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p := entity.Product{
		ID:          fmt.Sprintf("prod-%d", r.seq),
		Name:        name,
		Category:    category,
		Price:       price,
		Description: name + " description",
	}
	r.products[p.ID] = p
	return &p
}

func (r *fakeProductRepo) Create(_ context.Context, p *entity.Product) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	id := fmt.Sprintf("prod-%d", r.seq)
	stored := *p
	stored.ID = id
	r.products[id] = stored
	return id, nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	p, ok := r.products[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindSummaries(_ context.Context, productIDs []string) (map[string]entity.ProductSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]entity.ProductSummary, len(productIDs))
	for _, id := range productIDs {
		if p, ok := r.products[id]; ok {
			out[id] = p.Summary()
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[productID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, productID)
	return nil
}

func (r *fakeProductRepo) List(_ context.Context, params repository.ListProductsParams) (*repository.ListProductsResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var products []entity.Product
	for _, p := range r.products {
		if params.Category == "" || string(p.Category) == params.Category {
			products = append(products, p)
		}
	}
	return &repository.ListProductsResult{
		Products:    products,
		TotalCount:  int64(len(products)),
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
	}, nil
}

type fakeProductCache struct {
	mu      sync.Mutex
	entries map[string]entity.Product
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{entries: map[string]entity.Product{}}
}

func (c *fakeProductCache) Get(_ context.Context, productID string) (*entity.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (c *fakeProductCache) Set(_ context.Context, p *entity.Product, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = *p
	return nil
}

func (c *fakeProductCache) Delete(_ context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, productID)
	return nil
}

func (c *fakeProductCache) has(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[productID]
	return ok
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return "", repository.ErrAlreadyExists
		}
	}
	r.seq++
	id := fmt.Sprintf("user-%d", r.seq)
	stored := *u
	stored.ID = id
	r.users[id] = stored
	return id, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = entity.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, params repository.UpdateProfileParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[params.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.users {
		if id != params.UserID && other.Email == params.Email {
			return repository.ErrAlreadyExists
		}
	}
	u.Name, u.Email, u.Phone, u.Location = params.Name, params.Email, params.Phone, params.Location
	r.users[params.UserID] = u
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, userID string, role entity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	r.users[userID] = u
	return nil
}

func (r *fakeUserRepo) SetResetOTP(_ context.Context, userID, otp string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetOTP = &otp
	u.ResetOTPExpiresAt = &expiresAt
	r.users[userID] = u
	return nil
}

func (r *fakeUserRepo) FindByResetOTP(_ context.Context, email, otp string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = entity.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email != email || u.ResetOTP == nil || *u.ResetOTP != otp {
			continue
		}
		if u.ResetOTPExpiresAt == nil || !u.ResetOTPExpiresAt.After(now) {
			continue
		}
		u := u
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) ConsumeResetOTP(_ context.Context, userID, otp, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.ResetOTP == nil || *u.ResetOTP != otp {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetOTP = nil
	u.ResetOTPExpiresAt = nil
	r.users[userID] = u
	return nil
}

func (r *fakeUserRepo) get(userID string) entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID]
}

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[string]entity.Cart
	// staleSaves makes the next n saves fail as if another writer won.
	staleSaves int
	saves      int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]entity.Cart{}}
}

func copyCart(c entity.Cart) *entity.Cart {
	c.Items = append([]entity.CartItem{}, c.Items...)
	return &c
}

func (r *fakeCartRepo) GetOrCreate(_ context.Context, userID string) (*entity.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		fresh := entity.NewCart(userID)
		fresh.ID = "cart-" + userID
		fresh.Version = 1
		c = *fresh
		r.carts[userID] = c
	}
	return copyCart(c), nil
}

func (r *fakeCartRepo) Save(_ context.Context, cart *entity.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.staleSaves > 0 {
		r.staleSaves--
		return repository.ErrOptimisticLock
	}
	stored, ok := r.carts[cart.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != cart.Version {
		return repository.ErrOptimisticLock
	}
	cart.RecalculateTotal()
	cart.Version++
	r.carts[cart.UserID] = *copyCart(*cart)
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	seq    int
	orders map[string]entity.Order
	// onCreate runs before an order is stored.
	onCreate func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]entity.Order{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *entity.Order) (string, error) {
	if r.onCreate != nil {
		r.onCreate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.PaymentIntentID != "" {
		for _, existing := range r.orders {
			if existing.PaymentIntentID == o.PaymentIntentID {
				return "", repository.ErrAlreadyExists
			}
		}
	}
	r.seq++
	id := fmt.Sprintf("order-%d", r.seq)
	stored := *o
	stored.ID = id
	r.orders[id] = stored
	return id, nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, orderID string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) GetByPaymentIntentID(_ context.Context, paymentIntentID string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if paymentIntentID != "" && o.PaymentIntentID == paymentIntentID {
			o := o
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) update(orderID string, version int, fn func(*entity.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Version != version {
		return repository.ErrOptimisticLock
	}
	fn(&o)
	o.Version++
	r.orders[orderID] = o
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, params repository.UpdateOrderStatusParams) error {
	return r.update(params.OrderID, params.Version, func(o *entity.Order) {
		o.Status = params.Status
		o.AdminNotes = params.AdminNotes
		if params.DeliveryDate != nil {
			o.DeliveryDate = params.DeliveryDate
		}
	})
}

func (r *fakeOrderRepo) UpdatePaymentStatus(_ context.Context, params repository.UpdatePaymentStatusParams) error {
	return r.update(params.OrderID, params.Version, func(o *entity.Order) {
		o.PaymentStatus = params.PaymentStatus
	})
}

func (r *fakeOrderRepo) List(_ context.Context, params repository.ListOrdersParams) (*repository.ListOrdersResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []entity.Order
	for _, o := range r.orders {
		if params.UserID != "" && o.UserID != params.UserID {
			continue
		}
		if params.Status != "" && string(o.Status) != params.Status {
			continue
		}
		orders = append(orders, o)
	}
	return &repository.ListOrdersResult{
		Orders:      orders,
		TotalCount:  int64(len(orders)),
		CurrentPage: params.Page,
		PageSize:    params.PageSize,
	}, nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type publishedEvent struct {
	Subject string
	Message interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Message: message})
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject)
	}
	return out
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject, bodyHTML, bodyText string) error {
	args := m.Called(ctx, to, subject, bodyHTML, bodyText)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, params payment.CreateIntentParams) (*payment.Intent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) GetPaymentIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, params payment.CreateSessionParams) (*payment.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, intentID string, amount int64) (*payment.Refund, error) {
	args := m.Called(ctx, intentID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

// storefront bundles the services over in-memory stores.
type storefront struct {
	products  *fakeProductRepo
	users     *fakeUserRepo
	carts     *fakeCartRepo
	orders    *fakeOrderRepo
	publisher *recordingPublisher
	gateway   *MockGateway

	productService ProductService
	cartService    CartService
	orderService   OrderService
	paymentService PaymentService
}

func newStorefront() *storefront {
	sf := &storefront{
		products:  newFakeProductRepo(),
		users:     newFakeUserRepo(),
		carts:     newFakeCartRepo(),
		orders:    newFakeOrderRepo(),
		publisher: &recordingPublisher{},
		gateway:   new(MockGateway),
	}
	sf.productService = NewProductService(sf.products, nil, nil, testLog, ProductServiceConfig{})
	sf.cartService = NewCartService(sf.carts, sf.productService, testLog, CartServiceConfig{})
	sf.orderService = NewOrderService(sf.orders, sf.users, sf.cartService, sf.productService, sf.publisher, nil, nil, testLog)
	sf.paymentService = NewPaymentService(sf.gateway, sf.orders, sf.orderService, sf.cartService, sf.productService,
		sf.publisher, nil, testLog, PaymentServiceConfig{})
	return sf
}

var (
	customer = entity.Principal{UserID: "customer-1", Role: entity.RoleCustomer}
	intruder = entity.Principal{UserID: "customer-2", Role: entity.RoleCustomer}
	admin    = entity.Principal{UserID: "admin-1", Role: entity.RoleAdmin}

	testAddress = entity.Address{FullName: "Asha Rao", Street: "12 Farm Road", City: "Pune", Country: "IN"}
)
