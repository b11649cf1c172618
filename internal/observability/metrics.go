package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics keeps in-memory counters for the admin snapshot and mirrors them
// into a Prometheus registry for scraping.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	requestLatency map[string]time.Duration
	errorCount     map[string]int64
	lifecycleCount map[string]int64

	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
	lifecycleOps  *prometheus.CounterVec
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests  map[string]int64 `json:"requests"`
	LatencyMS map[string]int64 `json:"latency_ms"`
	Errors    map[string]int64 `json:"errors"`
	Lifecycle map[string]int64 `json:"lifecycle"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		requestCount:   make(map[string]int64),
		requestLatency: make(map[string]time.Duration),
		errorCount:     make(map[string]int64),
		lifecycleCount: make(map[string]int64),
		registry:       registry,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "desk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_http_errors_total",
			Help: "Total number of HTTP error responses by error code",
		}, []string{"method", "route", "code"}),
		lifecycleOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_lifecycle_operations_total",
			Help: "Lifecycle operations by outcome",
		}, []string{"operation", "outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestLatency[key] += duration
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
	m.errorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordLifecycle counts a core operation by outcome, e.g.
// ("transition", "changed") or ("assign", "unchanged").
func (m *Metrics) RecordLifecycle(operation, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lifecycleCount[operation+"|"+outcome]++
	m.lifecycleOps.WithLabelValues(operation, outcome).Inc()
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:  map[string]int64{},
		LatencyMS: map[string]int64{},
		Errors:    map[string]int64{},
		Lifecycle: map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.requestCount {
		snap.Requests[k] = v
	}
	for k, v := range m.requestLatency {
		snap.LatencyMS[k] = v.Milliseconds()
	}
	for k, v := range m.errorCount {
		snap.Errors[k] = v
	}
	for k, v := range m.lifecycleCount {
		snap.Lifecycle[k] = v
	}
	return snap
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
