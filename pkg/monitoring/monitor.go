package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	MessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_processed_total",
			Help: "Messages run through the checkpoint pipeline",
		},
		[]string{"outcome"}, // ok, degraded, crisis
	)

	AlertsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Alerts created by type",
		},
		[]string{"alert_type"},
	)

	AlertsDeduplicated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "alerts_deduplicated_total",
			Help: "Alert creations suppressed by the pending-duplicate guard",
		},
	)

	CrisisProtocolTriggers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crisis_protocol_triggers_total",
			Help: "Messages that fired the crisis protocol",
		},
	)

	PatternsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "temporal_patterns_detected_total",
			Help: "Temporal patterns detected by type",
		},
		[]string{"pattern_type"},
	)

	RiskProfilesComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_profiles_computed_total",
			Help: "Risk profiles computed by level",
		},
		[]string{"risk_level"},
	)

	OutcomeSweepAlerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outcome_sweep_alerts_total",
			Help: "Alerts examined by the symptom-improvement sweep",
		},
		[]string{"result"}, // processed, skipped_no_baseline, skipped_no_followup, failed
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(MessagesProcessed)
	prometheus.MustRegister(AlertsCreated)
	prometheus.MustRegister(AlertsDeduplicated)
	prometheus.MustRegister(CrisisProtocolTriggers)
	prometheus.MustRegister(PatternsDetected)
	prometheus.MustRegister(RiskProfilesComputed)
	prometheus.MustRegister(OutcomeSweepAlerts)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
