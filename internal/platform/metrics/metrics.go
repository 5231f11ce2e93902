// Package metrics 汇总了服务暴露给Prometheus的指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MealsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macros_meals_created_total",
		Help: "Meals logged, by source (text or recipe).",
	}, []string{"source"})

	MealsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "macros_meals_deleted_total",
		Help: "Meals deleted by their owners.",
	})

	ExtractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macros_extraction_failures_total",
		Help: "Failed nutrition extractions, by reason.",
	}, []string{"reason"})

	TotalsRecomputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "macros_totals_recomputed_total",
		Help: "Full daily totals recomputations, by trigger.",
	}, []string{"trigger"})

	TotalsDriftCorrected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "macros_totals_drift_corrected_total",
		Help: "Daily totals rows whose stored value differed from the recomputed sum.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "macros_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Middleware 记录每个请求的耗时
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler 返回 /metrics 的处理函数
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
