package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "heroapps",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "heroapps",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "heroapps",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	storageOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "heroapps",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of storage operations by outcome.",
		},
		[]string{"operation", "status"},
	)

	storageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "heroapps",
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Duration of storage operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	storageUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "heroapps",
			Subsystem: "storage",
			Name:      "up",
			Help:      "1 when the last storage health check succeeded.",
		},
	)

	appsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "heroapps",
			Subsystem: "storage",
			Name:      "apps_total",
			Help:      "Number of records in the apps collection at the last health check.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		storageOperations,
		storageDuration,
		storageUp,
		appsTotal,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Requests for metricsPath itself are not recorded.
func InstrumentHandler(metricsPath string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if metricsPath != "" && r.URL.Path == metricsPath {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordStorageOperation records the outcome and latency of one storage call.
func RecordStorageOperation(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storageOperations.WithLabelValues(operation, status).Inc()
	storageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetStorageHealth publishes the result of a storage health check.
func SetStorageHealth(up bool, total int64) {
	if !up {
		storageUp.Set(0)
		return
	}
	storageUp.Set(1)
	appsTotal.Set(float64(total))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath keeps label cardinality bounded: identifiers collapse to
// ":id" and unknown routes share one label.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "apps":
		switch len(parts) {
		case 1:
			return "/apps"
		case 2:
			return "/apps/:id"
		}
	case "info", "metrics":
		if len(parts) == 1 {
			return "/" + parts[0]
		}
	}
	return "unmatched"
}
