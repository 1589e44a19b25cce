package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Flow metrics
	flowStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_steps_total",
			Help: "Total number of flow steps handled, by outcome.",
		},
		[]string{"flow", "step", "outcome"},
	)

	// Appliance probe metrics
	omvConnectTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omv_connect_total",
			Help: "Total number of OpenMediaVault connectivity probes.",
		},
		[]string{"outcome"},
	)

	omvConnectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "omv_connect_duration_seconds",
			Help:    "OpenMediaVault connectivity probe duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Init registers all collectors exactly once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal)
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(flowStepsTotal)
		prometheus.MustRegister(omvConnectTotal)
		prometheus.MustRegister(omvConnectDuration)
	})
}

// Handler exposes the /metrics HTTP handler.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

type statusCapturingWriter struct {
	w      http.ResponseWriter
	status int
}

func (s *statusCapturingWriter) Header() http.Header         { return s.w.Header() }
func (s *statusCapturingWriter) Write(b []byte) (int, error) { return s.w.Write(b) }
func (s *statusCapturingWriter) WriteHeader(code int) {
	s.status = code
	s.w.WriteHeader(code)
}

// HTTPMetricsMiddleware captures basic HTTP metrics.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	Init()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		scw := &statusCapturingWriter{w: w, status: http.StatusOK}
		next.ServeHTTP(scw, r)

		path := routeLabel(r.URL.Path)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(scw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routeLabel replaces flow and entry IDs so the path label stays bounded.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if parts[i-1] == "flows" || parts[i-1] == "entries" {
			if parts[i] != "" {
				parts[i] = ":id"
			}
		}
	}
	return strings.Join(parts, "/")
}

// ObserveFlowStep counts one handled step. outcome is "form", "errors" or a terminal result type.
func ObserveFlowStep(flow, step, outcome string) {
	Init()
	flowStepsTotal.WithLabelValues(flow, step, outcome).Inc()
}

// ObserveConnect records one connectivity probe.
func ObserveConnect(outcome string, start time.Time) {
	Init()
	omvConnectTotal.WithLabelValues(outcome).Inc()
	omvConnectDuration.Observe(time.Since(start).Seconds())
}
