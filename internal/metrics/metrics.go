// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpa_calculations_total",
			Help: "Total number of GPA calculations",
		},
		[]string{"kind", "classification"},
	)

	AverageHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpa_average",
			Help:    "Distribution of computed averages",
			Buckets: prometheus.LinearBuckets(0, 0.5, 11),
		},
		[]string{"kind"},
	)

	InvalidCoursesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpa_invalid_courses_total",
			Help: "Courses excluded from an average because their grade could not be resolved",
		},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpa_auth_events_total",
			Help: "Registrations, logins and logouts by outcome",
		},
		[]string{"event", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
