package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds the storefront's Prometheus collectors.
type MetricsManager struct {
	Registry                   *prometheus.Registry
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestLatency         *prometheus.HistogramVec
	OrdersPlacedTotal          *prometheus.CounterVec
	PaymentConfirmationsTotal  *prometheus.CounterVec
	PasswordResetRequestsTotal *prometheus.CounterVec
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpRequestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ordersPlacedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders created by payment method.",
	}, []string{"payment_method"})

	paymentConfirmationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_confirmations_total",
		Help:      "Payment confirmation attempts by outcome.",
	}, []string{"outcome"})

	passwordResetRequestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_reset_requests_total",
		Help:      "Password reset OTP requests by outcome.",
	}, []string{"outcome"})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestLatency,
		ordersPlacedTotal,
		paymentConfirmationsTotal,
		passwordResetRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:                   registry,
		HTTPRequestsTotal:          httpRequestsTotal,
		HTTPRequestLatency:         httpRequestLatency,
		OrdersPlacedTotal:          ordersPlacedTotal,
		PaymentConfirmationsTotal:  paymentConfirmationsTotal,
		PasswordResetRequestsTotal: passwordResetRequestsTotal,
	}
}

func (m *MetricsManager) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestLatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *MetricsManager) OrderPlaced(paymentMethod string) {
	m.OrdersPlacedTotal.WithLabelValues(paymentMethod).Inc()
}

func (m *MetricsManager) PaymentConfirmation(outcome string) {
	m.PaymentConfirmationsTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsManager) PasswordResetRequest(outcome string) {
	m.PasswordResetRequestsTotal.WithLabelValues(outcome).Inc()
}

// Server exposes /metrics on its own port.
type Server struct {
	srv *http.Server
	log logger.Logger
}

func NewServer(port string, registry *prometheus.Registry, log logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Infof("Prometheus metrics server listening on %s/metrics", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
