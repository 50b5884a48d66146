package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentStoreErrors counts remote document store errors by operation.
	DocumentStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "almanac_document_store_errors_total",
		Help: "Total number of document store errors by operation",
	}, []string{"operation"})

	// FallbackDegradations counts loads served from the local cache or the
	// empty default because the remote store was unavailable.
	FallbackDegradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "almanac_fallback_degradations_total",
		Help: "Total number of loads degraded to cache or empty default",
	}, []string{"collection", "source"})

	// ShareFeedConnections is the gauge of active share-view WebSocket connections.
	ShareFeedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "almanac_share_feed_connections",
		Help: "Number of active share-view WebSocket connections",
	})

	// SharePasswordRejections counts failed share-link password attempts.
	SharePasswordRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "almanac_share_password_rejections_total",
		Help: "Total number of rejected share-link password attempts",
	})
)

var (
	promOnce sync.Once
	promInst *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus HTTP middleware for the given service
// name. The underlying collectors register against the default registry, so
// the instance is created once and shared.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInst = fiberprometheus.New(serviceName)
	})
	return promInst
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
