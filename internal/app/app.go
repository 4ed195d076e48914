package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	emailadapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/email"
	memoryadapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/memory"
	mongoadapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/mongo"
	natsadapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/nats"
	stripeadapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/payment/stripe"
	redisadapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/redis"
	s3adapter "github.com/Abdurahmanit/GroupProject/storefront/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/handler"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/tracer"
	httpserver "github.com/Abdurahmanit/GroupProject/storefront/internal/port/http"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/repository"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/router"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type App struct {
	cfg            *config.Config
	log            logger.Logger
	server         *httpserver.Server
	metricsServer  *metrics.Server
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	natsConn       *nats.Conn
	tracerShutdown tracer.ShutdownFunc
	resetService   service.PasswordResetService
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	appLogger, err := logger.NewZapLogger(logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s", cfg.Env, cfg.HTTPServer.Port)

	tracerShutdown, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		appLogger.Warnf("Tracing disabled: %v", err)
		tracerShutdown = func(context.Context) error { return nil }
	}

	appLogger.Info("Initializing MongoDB client...")
	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	db := mongoClient.Database(cfg.MongoDB.Database)
	if err := mongoadapter.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
	}
	appLogger.Info("MongoDB client initialized successfully")

	application := &App{
		cfg:            cfg,
		log:            appLogger,
		mongoClient:    mongoClient,
		tracerShutdown: tracerShutdown,
	}

	var (
		productCache repository.ProductCache
		limiter      repository.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		appLogger.Info("Initializing Redis client...")
		redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
		}
		application.redisClient = redisClient
		productCache = redisadapter.NewProductCache(redisClient)
		limiter = redisadapter.NewRateLimiter(redisClient)
		appLogger.Info("Redis client initialized successfully")
	} else {
		appLogger.Warn("Redis address not set: product cache disabled, password reset limits are per instance")
		limiter = memoryadapter.NewRateLimiter()
	}

	var publisher natsadapter.MessagePublisher
	if cfg.NATS.URL != "" {
		conn, err := natsadapter.NewConnection(cfg.NATS, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		application.natsConn = conn
		if publisher, err = natsadapter.NewNATSPublisher(conn); err != nil {
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
	} else {
		appLogger.Warn("NATS URL not set, domain events are only logged")
		publisher = natsadapter.NewLogPublisher(appLogger.Named("events"))
	}

	var mailer emailadapter.EmailSender
	if sender, err := emailadapter.NewSMTPSender(cfg.SMTP, appLogger); err != nil {
		if !errors.Is(err, emailadapter.ErrIncompleteConfig) {
			return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
		}
		appLogger.Warnf("Email delivery disabled: %v", err)
	} else {
		mailer = sender
	}

	var images repository.ImageStorage
	if cfg.Storage.Endpoint != "" {
		storage, err := s3adapter.NewS3Storage(ctx, cfg.Storage, appLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		images = storage
	} else {
		appLogger.Warn("Storage endpoint not set, product image uploads are disabled")
	}

	metricsManager := metrics.NewMetricsManager("storefront")
	application.metricsServer = metrics.NewServer(cfg.Metrics.Port, metricsManager.Registry, appLogger.Named("metrics"))

	userRepo := mongoadapter.NewUserRepository(db)
	productRepo := mongoadapter.NewProductRepository(db)
	cartRepo := mongoadapter.NewCartRepository(db)
	orderRepo := mongoadapter.NewOrderRepository(db)

	tokens := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	productService := service.NewProductService(productRepo, productCache, images, appLogger.Named("ProductService"),
		service.ProductServiceConfig{CacheTTL: cfg.ProductCache.TTL})
	cartService := service.NewCartService(cartRepo, productService, appLogger.Named("CartService"),
		service.CartServiceConfig{MaxRetries: cfg.Cart.MaxRetries})
	orderService := service.NewOrderService(orderRepo, userRepo, cartService, productService, publisher, mailer,
		metricsManager, appLogger.Named("OrderService"))
	receiptService := service.NewReceiptService(orderService, appLogger.Named("ReceiptService"))
	authService := service.NewAuthService(userRepo, tokens, appLogger.Named("AuthService"), service.AuthServiceConfig{})
	resetService := service.NewPasswordResetService(userRepo, limiter, mailer, metricsManager, appLogger.Named("PasswordResetService"),
		service.PasswordResetConfig{
			OTPTTL:          cfg.PasswordReset.OTPTTL,
			MaxRequests:     cfg.PasswordReset.MaxRequests,
			Window:          cfg.PasswordReset.Window,
			ExposeOTPInLogs: !cfg.IsProduction(),
		})
	gateway := stripeadapter.NewGateway(cfg.Stripe, appLogger)
	paymentService := service.NewPaymentService(gateway, orderRepo, orderService, cartService, productService, publisher,
		metricsManager, appLogger.Named("PaymentService"), service.PaymentServiceConfig{
			Currency:         cfg.Stripe.Currency,
			AmountMultiplier: cfg.Stripe.AmountMultiplier,
		})

	checks := map[string]handler.HealthCheck{
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
	}
	if application.redisClient != nil {
		redisClient := application.redisClient
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	handlers := router.Handlers{
		Users:    handler.NewUserHandler(authService, appLogger),
		Products: handler.NewProductHandler(productService, appLogger, cfg.HTTPServer.MaxUploadBytes),
		Cart:     handler.NewCartHandler(cartService, appLogger),
		Password: handler.NewPasswordHandler(resetService, appLogger),
		Payments: handler.NewPaymentHandler(paymentService, appLogger),
		Orders:   handler.NewOrderHandler(orderService, receiptService, appLogger),
		Health:   handler.NewHealthHandler(checks, appLogger),
	}
	routes := router.New(handlers, router.Config{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Tokens:         tokens,
		Metrics:        metricsManager,
	}, appLogger)

	application.resetService = resetService
	application.server = httpserver.NewServer(cfg.HTTPServer, routes, cfg.Tracing.ServiceName, appLogger.Named("http"))
	return application, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	go func() {
		if err := a.metricsServer.Start(); err != nil {
			a.log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	}
	if err := a.metricsServer.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error stopping metrics server: %v", err)
	}
	a.resetService.Wait()

	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.log.Errorf("Error draining NATS connection: %v", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		}
	}
	if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
		a.log.Errorf("Error disconnecting from MongoDB: %v", err)
	}
	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.log.Errorf("Error flushing traces: %v", err)
	}

	a.log.Info("Application shut down successfully")
	_ = a.log.Sync()
}
