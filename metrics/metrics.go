package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tailorly_order_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})

	PaymentsCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tailorly_payments_captured_total",
		Help: "Payments moved to captured.",
	})

	RealtimeSubscribers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tailorly_realtime_subscribers",
		Help: "Open server-sent event streams by kind.",
	}, []string{"kind"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tailorly_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tailorly_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(OrderTransitions, PaymentsCaptured, RealtimeSubscribers, HTTPRequests, HTTPDuration)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
