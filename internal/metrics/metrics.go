package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	rentalTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_transitions_total",
			Help: "Rental lifecycle transition attempts by target status and outcome.",
		},
		[]string{"status", "outcome"},
	)

	overdueRentals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rentals_overdue",
			Help: "Approved rentals past their end date at the last scan.",
		},
	)
)

// PrometheusMiddleware records request count and latency per route template.
func PrometheusMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

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

			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()

			return nil
		}
	}
}

// RecordRentalTransition counts a lifecycle transition attempt; outcome is "ok" or an error class.
func RecordRentalTransition(status, outcome string) {
	rentalTransitionsTotal.WithLabelValues(status, outcome).Inc()
}

func SetOverdueRentals(n int) {
	overdueRentals.Set(float64(n))
}
