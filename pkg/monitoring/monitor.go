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
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// ProviderCalls 外部 AI/语音/图像调用结果：ok / empty / error / skipped
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptive_provider_calls_total",
			Help: "Provider gateway calls by capability and outcome",
		},
		[]string{"capability", "outcome"},
	)

	// Fallbacks 兜底内容生成次数
	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptive_fallbacks_total",
			Help: "Synthetic fallback artifacts produced, by asset",
		},
		[]string{"asset"},
	)

	CodeRunnerResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_runner_results_total",
			Help: "Code execution results by tier and status",
		},
		[]string{"runner", "status"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ProviderCalls)
	prometheus.MustRegister(Fallbacks)
	prometheus.MustRegister(CodeRunnerResults)
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
