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
			Name: "group_http_requests_total",
			Help: "Total number of HTTP requests processed by the group service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "group_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	badgesAwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_badges_awarded_total",
			Help: "Total number of badge tokens awarded to groups.",
		},
		[]string{"badge"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "group_feed_active_connections",
			Help: "Number of active activity-feed websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "group_feed_events_total",
			Help: "Total number of activity-feed websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "group_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		badgesAwardedTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

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

func IncBadgeAwarded(badge string) {
	badgesAwardedTotal.WithLabelValues(badge).Inc()
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

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
