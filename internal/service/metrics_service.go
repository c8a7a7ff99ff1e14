package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface, the taxonomy cache, and the content-distribution domain.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	notificationsPublished prometheus.Counter
	deliveriesCreated      prometheus.Counter
	sweeperDeleted         *prometheus.CounterVec
	pushDispatched         *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	notificationsPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_published_total",
		Help: "Total notifications published",
	})

	deliveriesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_deliveries_created_total",
		Help: "Total delivery rows created by fan-out",
	})

	sweeperDeleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeper_deleted_total",
		Help: "Total expired rows removed by the cleanup sweeper",
	}, []string{"kind"})

	pushDispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_dispatch_total",
		Help: "Push dispatch attempts per channel and result",
	}, []string{"channel", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHitRatio, cacheHits, cacheMisses,
		notificationsPublished, deliveriesCreated, sweeperDeleted, pushDispatched, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:               registry,
		handler:                handler,
		requestDuration:        requestDuration,
		requestTotal:           requestTotal,
		cacheLatency:           cacheLatency,
		cacheHitRatio:          cacheHitRatio,
		cacheHits:              cacheHits,
		cacheMisses:            cacheMisses,
		notificationsPublished: notificationsPublished,
		deliveriesCreated:      deliveriesCreated,
		sweeperDeleted:         sweeperDeleted,
		pushDispatched:         pushDispatched,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// RecordPublish counts one published notification and the delivery rows its
// fan-out created.
func (m *MetricsService) RecordPublish(deliveries int64) {
	if m == nil {
		return
	}
	m.notificationsPublished.Inc()
	m.deliveriesCreated.Add(float64(deliveries))
}

// RecordSweep counts rows removed by the sweeper for one content kind.
func (m *MetricsService) RecordSweep(kind string, deleted int64) {
	if m == nil {
		return
	}
	m.sweeperDeleted.WithLabelValues(kind).Add(float64(deleted))
}

// RecordPushDispatch counts one push dispatch attempt per channel.
func (m *MetricsService) RecordPushDispatch(channel string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.pushDispatched.WithLabelValues(channel, result).Inc()
}
