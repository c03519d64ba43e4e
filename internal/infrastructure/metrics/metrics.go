package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the API and the upstream
// Shopify client.
type Metrics struct {
	Registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	adminCalls        *prometheus.CounterVec
	adminCallDuration *prometheus.HistogramVec
	wishlistOps       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wishlist_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		adminCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_shopify_admin_calls_total",
			Help: "Shopify Admin API calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		adminCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wishlist_shopify_admin_call_duration_seconds",
			Help:    "Shopify Admin API call latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		wishlistOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wishlist_operations_total",
			Help: "Wishlist mutations and reads by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveAdminCall records one upstream Admin API call.
func (m *Metrics) ObserveAdminCall(operation string, err error, d time.Duration) {
	m.adminCalls.WithLabelValues(operation, outcome(err)).Inc()
	m.adminCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveWishlistOp records one wishlist service operation.
func (m *Metrics) ObserveWishlistOp(operation string, err error) {
	m.wishlistOps.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
