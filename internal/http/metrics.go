package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/tides-lgp/internal/domain"
)

// Metrics holds the Prometheus collectors of the API, registered on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	// interpolations counts interpolated locations by quality.
	interpolations *prometheus.CounterVec
	// batchSize tracks the number of locations per batch request.
	batchSize prometheus.Histogram
	// requestDuration tracks request latency by route and status.
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the API collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		interpolations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lgp_interpolations_total",
			Help: "Total interpolated locations by quality",
		}, []string{"quality"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lgp_batch_locations",
			Help:    "Number of locations per batch request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lgp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}, []string{"route", "status"}),
	}
}

// ObserveQuality records one interpolated location.
func (m *Metrics) ObserveQuality(q domain.Quality) {
	m.interpolations.WithLabelValues(q.String()).Inc()
}

// ObserveBatch records the size of a batch request.
func (m *Metrics) ObserveBatch(n int) {
	m.batchSize.Observe(float64(n))
}

// Middleware records the duration of every request.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
