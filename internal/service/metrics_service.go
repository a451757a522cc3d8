package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/pmb-api/pkg/jobs"
)

// MetricsSnapshot is a compact view of the counters for the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	Allocations              uint64    `json:"allocations"`
	DiscountsClamped         uint64    `json:"discounts_clamped"`
	EventsPublished          uint64    `json:"events_published"`
	EventsFailed             uint64    `json:"events_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation. All methods are safe
// on a nil receiver so components can be built without metrics in tests.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	allocations     *prometheus.CounterVec
	allocProbes     prometheus.Histogram
	discountClamped prometheus.Counter
	events          *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	allocationCount      uint64
	clampedCount         uint64
	eventsPublished      uint64
	eventsFailed         uint64
}

// NewMetricsService registers the pmb_* collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pmb_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pmb_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmb_cache_latency_seconds",
		Help:    "Latency for catalog cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmb_cache_write_seconds",
		Help:    "Latency for catalog cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pmb_cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pmb_cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pmb_cache_misses_total",
		Help: "Total cache misses",
	})

	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pmb_number_allocations_total",
		Help: "Registration number allocations by outcome",
	}, []string{"outcome"})

	allocProbes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pmb_number_allocation_probes",
		Help:    "Collisions skipped before a free registration number was found",
		Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 500},
	})

	discountClamped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pmb_discount_clamped_total",
		Help: "Discounts reduced to the base fee because they exceeded it",
	})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pmb_events_total",
		Help: "Registration events by type and publish result",
	}, []string{"type", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pmb_goroutines",
		Help: "Number of running goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		allocations, allocProbes, discountClamped, events, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		allocations:     allocations,
		allocProbes:     allocProbes,
		discountClamped: discountClamped,
		events:          events,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveAllocation records the outcome of a registration number allocation.
func (m *MetricsService) ObserveAllocation(outcome string, probes int) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.allocProbes.Observe(float64(probes))
		atomic.AddUint64(&m.allocationCount, 1)
	}
}

// RecordDiscountClamped counts a discount reduced to the base fee.
func (m *MetricsService) RecordDiscountClamped() {
	if m == nil {
		return
	}
	m.discountClamped.Inc()
	atomic.AddUint64(&m.clampedCount, 1)
}

// RecordEvent counts a publish attempt for an event type.
func (m *MetricsService) RecordEvent(eventType string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.events.WithLabelValues(eventType, "failed").Inc()
		atomic.AddUint64(&m.eventsFailed, 1)
		return
	}
	m.events.WithLabelValues(eventType, "published").Inc()
	atomic.AddUint64(&m.eventsPublished, 1)
}

// TrackQueue exports the throughput counters of a background queue.
func (m *MetricsService) TrackQueue(name string, stats func() jobs.Stats) {
	if m == nil || stats == nil {
		return
	}
	labels := prometheus.Labels{"queue": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pmb_queue_processed_total", Help: "Jobs handled successfully", ConstLabels: labels,
		}, func() float64 { return float64(stats().Processed) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pmb_queue_retried_total", Help: "Jobs scheduled for another attempt", ConstLabels: labels,
		}, func() float64 { return float64(stats().Retried) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "pmb_queue_dropped_total", Help: "Jobs discarded after retries, overflow or shutdown", ConstLabels: labels,
		}, func() float64 { return float64(stats().Dropped) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pmb_queue_pending", Help: "Jobs buffered, running or awaiting retry", ConstLabels: labels,
		}, func() float64 { return float64(stats().Pending) }),
	)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		Allocations:              atomic.LoadUint64(&m.allocationCount),
		DiscountsClamped:         atomic.LoadUint64(&m.clampedCount),
		EventsPublished:          atomic.LoadUint64(&m.eventsPublished),
		EventsFailed:             atomic.LoadUint64(&m.eventsFailed),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
