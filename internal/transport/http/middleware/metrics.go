package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// 搜索与页面接口大多在百毫秒内，桶向低延迟倾斜
var latencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5}

var (
	siteRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "site_http_requests_total",
		Help: "HTTP requests by route template, method and status",
	}, []string{"route", "method", "status"})
	siteLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "site_http_request_duration_seconds",
		Help:    "HTTP latency by route template",
		Buckets: latencyBuckets,
	}, []string{"route", "method"})
	siteInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "site_http_in_flight_requests",
		Help: "Requests currently being served",
	})
)

func init() { prometheus.MustRegister(siteRequests, siteLatency, siteInFlight) }

// routeLabel 用路由模板而非原始路径：slug、id 不进标签
func routeLabel(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		siteInFlight.Inc()
		defer siteInFlight.Dec()

		start := time.Now()
		c.Next()
		route := routeLabel(c)
		siteRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		siteLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
