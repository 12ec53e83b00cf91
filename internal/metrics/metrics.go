package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	InvoicesCreatedTotal    prometheus.Counter
	InvoiceEmailsSentTotal  *prometheus.CounterVec
	LicenseValidationsTotal *prometheus.CounterVec
	StatsReportsTotal       prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "license_service",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "license_service",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		InvoicesCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "license_service",
			Name:      "invoices_created_total",
			Help:      "Total number of invoices created",
		}),
		InvoiceEmailsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "license_service",
				Name:      "invoice_emails_sent_total",
				Help:      "Total number of invoice email send attempts",
			},
			[]string{"result"},
		),
		LicenseValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "license_service",
				Name:      "license_validations_total",
				Help:      "Total number of license validation requests",
			},
			[]string{"result"},
		),
		StatsReportsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "license_service",
			Name:      "stats_reports_total",
			Help:      "Total number of usage stats reports ingested",
		}),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.InvoicesCreatedTotal,
		m.InvoiceEmailsSentTotal,
		m.LicenseValidationsTotal,
		m.StatsReportsTotal,
	)

	return m
}

// Middleware records request counts and durations per route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Use the route template, not the raw path, to keep cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
