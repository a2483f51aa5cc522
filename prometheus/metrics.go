package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported through the info gauge
const Version = "1.0.0"

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Tokens issued by type
	TokenIssuedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_tokens_issued_total",
			Help: "Total number of tokens issued",
		},
		[]string{"type"}, // "access" or "refresh"
	)

	TokenRevokedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_tokens_revoked_total",
			Help: "Total number of tokens revoked on logout",
		},
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // "list", "get", "create", "update", "delete", "activate", "deactivate"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// HTTP responses by status category
	StatusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"category"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "bad_credentials" etc.
	)
)

// Histogram metrics
var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admin_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admin_info",
			Help: "Information about the admin service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(TokenIssuedCounter)
	prometheus.MustRegister(TokenRevokedCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StatusCategoryCounter)
	prometheus.MustRegister(AuthErrorCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	InfoGauge.With(prometheus.Labels{"version": Version}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations:
//
//	defer prometheus.TrackDBOperation("query")()
func TrackDBOperation(operation string) func() {
	startTime := time.Now()
	return func() {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			labels := prometheus.Labels{
				"endpoint": c.Path(),
				"method":   c.Request().Method,
				"status":   strconv.Itoa(status),
			}

			RequestDuration.With(labels).Observe(time.Since(start).Seconds())
			HTTPRequestCounter.With(labels).Inc()
			if category := statusCategory(status); category != "" {
				StatusCategoryCounter.WithLabelValues(category).Inc()
			}

			return nil
		}
	}
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	}
	return ""
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTokenIssued records a token issued by type
func RecordTokenIssued(tokenType string) {
	TokenIssuedCounter.With(prometheus.Labels{"type": tokenType}).Inc()
}

// RecordTokenRevoked records a token put on the denylist
func RecordTokenRevoked() {
	TokenRevokedCounter.Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}
