package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat delivery service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	relayPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_relay_published_total",
			Help: "Messages published to the delivery broker.",
		},
	)
	relayPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_relay_publish_errors_total",
			Help: "Failed broker publishes; delivery degrades to history fetch.",
		},
	)
	relayDeliveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_relay_delivered_total",
			Help: "Relayed messages pushed to a locally connected recipient.",
		},
	)
	relayDuplicatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_relay_duplicates_total",
			Help: "Broker redeliveries dropped by the dedup set.",
		},
	)
	relayDecodeErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_relay_decode_errors_total",
			Help: "Relay deliveries dropped because no wire shape decoded.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		relayPublishedTotal,
		relayPublishErrorsTotal,
		relayDeliveredTotal,
		relayDuplicatesTotal,
		relayDecodeErrorsTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latency per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncRelayPublished() {
	relayPublishedTotal.Inc()
}

func IncRelayPublishError() {
	relayPublishErrorsTotal.Inc()
}

func IncRelayDelivered() {
	relayDeliveredTotal.Inc()
}

func IncRelayDuplicate() {
	relayDuplicatesTotal.Inc()
}

func IncRelayDecodeError() {
	relayDecodeErrorsTotal.Inc()
}
