package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mone",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mone",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mone",
			Subsystem: "requests",
			Name:      "transitions_total",
			Help:      "Request lifecycle transitions by action and result kind.",
		},
		[]string{"action", "result"},
	)

	ratings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mone",
			Subsystem: "ratings",
			Name:      "submissions_total",
			Help:      "Rating submissions by result kind.",
		},
		[]string{"result"},
	)

	notifications = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mone",
			Subsystem: "notifications",
			Name:      "emitted_total",
			Help:      "Notifications committed alongside transitions and ratings.",
		},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, transitions, ratings, notifications)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// RecordTransition counts one lifecycle decision. result is "ok" or the
// error kind.
func RecordTransition(action, result string) {
	transitions.WithLabelValues(action, result).Inc()
}

// RecordRating counts one rating submission.
func RecordRating(result string) {
	ratings.WithLabelValues(result).Inc()
}

// RecordNotifications adds n committed notifications.
func RecordNotifications(n int) {
	notifications.Add(float64(n))
}
