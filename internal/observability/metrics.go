package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ReviewTransitionsTotal *prometheus.CounterVec
	CourseSyncTotal        *prometheus.CounterVec

	UpstreamDuration *prometheus.HistogramVec
	AvatarBytes      prometheus.Histogram
}

// NewMetrics registers collectors once per process.
//
// Metrics:
//   - reviewhub_http_requests_total{method,route,status}
//   - reviewhub_http_request_duration_seconds{method,route}
//   - reviewhub_review_transitions_total{kind}
//   - reviewhub_course_sync_total{trigger,outcome}
//   - reviewhub_upstream_duration_seconds{service,op,outcome}
//   - reviewhub_avatar_upload_bytes
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reviewhub_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "reviewhub_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			ReviewTransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reviewhub_review_transitions_total",
					Help: "Review lifecycle events (submitted, approved, rejected, activated, ...)",
				},
				[]string{"kind"},
			),
			CourseSyncTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reviewhub_course_sync_total",
					Help: "Course catalog sync runs",
				},
				[]string{"trigger", "outcome"},
			),
			UpstreamDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "reviewhub_upstream_duration_seconds",
					Help:    "Latency of calls to external services",
					Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				},
				[]string{"service", "op", "outcome"},
			),
			AvatarBytes: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "reviewhub_avatar_upload_bytes",
					Help:    "Size of stored avatar images",
					Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
				},
			),
		}
	})
	return globalMetrics
}

func (m *Metrics) ObserveHTTP(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ReviewTransition(kind string) {
	if m == nil {
		return
	}
	m.ReviewTransitionsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) CourseSync(trigger string, err error) {
	if m == nil {
		return
	}
	m.CourseSyncTotal.WithLabelValues(trigger, outcome(err)).Inc()
}

func (m *Metrics) ObserveUpstream(service, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(service, op, outcome(err)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveAvatarBytes(n int64) {
	if m == nil {
		return
	}
	m.AvatarBytes.Observe(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
