package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "safewalk",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Assessment engine metrics
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "safewalk",
		Subsystem: "inference",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each assessment stage including retries",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"stage"})

	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "inference",
		Name:      "stage_failures_total",
		Help:      "Total assessment stage failures by reason",
	}, []string{"stage", "reason"})

	RetryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "inference",
		Name:      "retry_attempts_total",
		Help:      "Total retry attempts made by the request executor",
	})

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "inference",
		Name:      "rate_limit_hits_total",
		Help:      "Total rate-limit rejections observed from the inference service",
	})

	ReconcileOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "view",
		Name:      "reconcile_ops_total",
		Help:      "View objects created, updated or removed during reconciliation",
	}, []string{"kind", "op"})

	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "chat",
		Name:      "turns_total",
		Help:      "Total chat turns by outcome",
	}, []string{"outcome"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "safewalk",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safewalk",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
