package metrics

import (
	"bufio"
	"errors"
	"net"
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
			Namespace: "sedifex",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sedifex",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sedifex",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	salesCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sedifex",
			Subsystem: "sales",
			Name:      "committed_total",
			Help:      "Total number of committed sales.",
		},
		[]string{"payment_method"},
	)

	salesVoided = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sedifex",
			Subsystem: "sales",
			Name:      "voided_total",
			Help:      "Total number of voided sales.",
		},
	)

	saleValue = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sedifex",
			Subsystem: "sales",
			Name:      "value_cents",
			Help:      "Distribution of sale totals in minor currency units.",
			Buckets:   prometheus.ExponentialBuckets(100, 2.5, 10), // 1.00 to ~9.5k
		},
	)

	stockReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sedifex",
			Subsystem: "stock",
			Name:      "received_units_total",
			Help:      "Total units of stock received.",
		},
	)

	replayOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sedifex",
			Subsystem: "sync",
			Name:      "replay_ops_total",
			Help:      "Total offline operations replayed, by outcome.",
		},
		[]string{"result"},
	)

	realtimeSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sedifex",
			Subsystem: "realtime",
			Name:      "subscribers",
			Help:      "Current number of connected realtime subscribers.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		salesCommitted,
		salesVoided,
		saleValue,
		stockReceived,
		replayOps,
		realtimeSubscribers,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordSale records a committed sale.
func RecordSale(paymentMethod string, totalCents int64) {
	if paymentMethod == "" {
		paymentMethod = "unknown"
	}
	salesCommitted.WithLabelValues(paymentMethod).Inc()
	saleValue.Observe(float64(totalCents))
}

// RecordVoid records a voided sale.
func RecordVoid() {
	salesVoided.Inc()
}

// RecordStockReceived records units added through a stock receipt.
func RecordStockReceived(quantity int) {
	if quantity > 0 {
		stockReceived.Add(float64(quantity))
	}
}

// RecordReplayOp records the outcome of one replayed offline operation.
func RecordReplayOp(result string) {
	if result == "" {
		result = "unknown"
	}
	replayOps.WithLabelValues(result).Inc()
}

// SubscriberConnected tracks a new realtime connection.
func SubscriberConnected() {
	realtimeSubscribers.Inc()
}

// SubscriberDisconnected tracks a dropped realtime connection.
func SubscriberDisconnected() {
	realtimeSubscribers.Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Hijack passes websocket upgrades through to the wrapped writer.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// canonicalPath collapses record IDs so the path label stays low
// cardinality: /api/v1/products/123 becomes /api/v1/products/:id.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "/" + parts[0]
	}
	for i := 3; i < len(parts); i += 2 {
		parts[i] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}
