package router

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler/response"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Users    *handler.UserHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Password *handler.PasswordHandler
	Payments *handler.PaymentHandler
	Orders   *handler.OrderHandler
	Health   *handler.HealthHandler
}

type Config struct {
	AllowedOrigins []string
	Tokens         middleware.TokenParser
	// Metrics is optional.
	Metrics middleware.HTTPObserver
}

func New(h Handlers, cfg Config, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log.Named("http")))
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", h.Health.Health)

	authn := middleware.JWTAuth(cfg.Tokens, log.Named("auth"))
	can := func(c entity.Capability) func(http.Handler) http.Handler {
		return middleware.RequireCapability(c, log.Named("auth"))
	}

	r.Route("/api", func(api chi.Router) {
		setupUserRoutes(api, h.Users, authn, can)
		setupProductRoutes(api, h.Products, authn, can)
		setupCartRoutes(api, h.Cart, authn)
		setupPasswordRoutes(api, h.Password)
		setupPaymentRoutes(api, h.Payments, authn, can)
		setupOrderRoutes(api, h.Orders, authn, can)
	})
	return r
}

type guard = func(http.Handler) http.Handler

func setupUserRoutes(r chi.Router, h *handler.UserHandler, authn guard, can func(entity.Capability) guard) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
			r.With(can(entity.CapManageUsers)).Put("/{id}/role", h.UpdateRole)
		})
	})
}

func setupProductRoutes(r chi.Router, h *handler.ProductHandler, authn guard, can func(entity.Capability) guard) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn, can(entity.CapManageCatalog))
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
			r.Post("/{id}/image", h.UploadImage)
		})
	})
}

func setupCartRoutes(r chi.Router, h *handler.CartHandler, authn guard) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authn)
		r.Get("/", h.Get)
		r.Post("/", h.AddItem)
		r.Delete("/", h.Clear)
		r.Get("/summary", h.Summary)
		r.Put("/item/{productId}", h.UpdateItem)
		r.Delete("/item/{productId}", h.RemoveItem)
	})
}

func setupPasswordRoutes(r chi.Router, h *handler.PasswordHandler) {
	r.Post("/password/forgot-password", h.ForgotPassword)
	r.Post("/password/reset-password", h.ResetPassword)
}

func setupPaymentRoutes(r chi.Router, h *handler.PaymentHandler, authn guard, can func(entity.Capability) guard) {
	r.Route("/payment", func(r chi.Router) {
		r.Post("/webhook", h.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/create-payment-intent", h.CreatePaymentIntent)
			r.Post("/confirm-payment", h.ConfirmPayment)
			r.Post("/create-checkout-session", h.CreateCheckoutSession)
			r.Post("/confirm-checkout-session", h.ConfirmCheckoutSession)
			r.With(can(entity.CapIssueRefunds)).Post("/refund/{orderId}", h.Refund)
		})
	})
}

func setupOrderRoutes(r chi.Router, h *handler.OrderHandler, authn guard, can func(entity.Capability) guard) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authn)
		r.Post("/", h.PlaceOrder)
		r.Post("/checkout", h.Checkout)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/receipt", h.Receipt)
		r.Put("/{id}/cancel", h.Cancel)
		r.With(can(entity.CapManageOrders)).Put("/{id}/status", h.UpdateStatus)
	})
}
