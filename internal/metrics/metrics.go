// Package metrics defines the prometheus collectors exported on /metrics.
// Every method is safe on a nil *Metrics so tests can skip instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	stockMovements       *prometheus.CounterVec
	stockRetries         prometheus.Counter
	ordersCreated        prometheus.Counter
	orderCompensations   *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	lowStockProducts     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		stockMovements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stock_movements_total",
				Help: "Stock movements recorded, by kind.",
			},
			[]string{"kind"},
		),
		stockRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_movement_retries_total",
			Help: "Movement transactions retried after a conflict.",
		}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "b2b_orders_created_total",
			Help: "B2B orders committed.",
		}),
		orderCompensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "b2b_order_compensations_total",
				Help: "Order headers deleted after an item insert failure, by outcome.",
			},
			[]string{"outcome"},
		),
		notificationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_failures_total",
				Help: "Notifications that could not be dispatched, by channel.",
			},
			[]string{"channel"},
		),
		lowStockProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stock_low_products",
			Help: "Products at or below their reorder threshold at the last check.",
		}),
	}
	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.stockMovements,
		m.stockRetries,
		m.ordersCreated,
		m.orderCompensations,
		m.notificationFailures,
		m.lowStockProducts,
	)
	return m
}

func (m *Metrics) ObserveHTTP(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(seconds)
}

func (m *Metrics) StockMovement(kind string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(kind).Inc()
}

func (m *Metrics) StockRetry() {
	if m == nil {
		return
	}
	m.stockRetries.Inc()
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// OrderCompensated records a compensating delete; ok is false when the delete
// itself failed and an orphan header may remain.
func (m *Metrics) OrderCompensated(ok bool) {
	if m == nil {
		return
	}
	outcome := "deleted"
	if !ok {
		outcome = "failed"
	}
	m.orderCompensations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) NotificationFailed(channel string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(channel).Inc()
}

func (m *Metrics) SetLowStock(n int) {
	if m == nil {
		return
	}
	m.lowStockProducts.Set(float64(n))
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
