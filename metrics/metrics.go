package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	assignments     *prometheus.CounterVec
	tasksReviewed   *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgdash",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orgdash",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets: []float64{
				0.001, 0.005, 0.01,
				0.05, 0.1, 0.25,
				0.5, 1, 2.5, 5,
			},
		}, []string{"method", "route"}),
		assignments: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgdash",
			Name:      "assignment_entities_total",
			Help:      "Entities processed by assignment requests, by target kind and outcome.",
		}, []string{"kind", "result"}),
		tasksReviewed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgdash",
			Name:      "tasks_reviewed_total",
			Help:      "Task reviews by resulting status.",
		}, []string{"status"}),
	}
})

func ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m := metricsSingleton()
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveAssignment records one assignment request. kind is "team" or "supervisor".
func ObserveAssignment(kind string, assigned, skipped int) {
	m := metricsSingleton()
	m.assignments.WithLabelValues(kind, "assigned").Add(float64(assigned))
	m.assignments.WithLabelValues(kind, "skipped").Add(float64(skipped))
}

func ObserveReview(status string) {
	metricsSingleton().tasksReviewed.WithLabelValues(status).Inc()
}
