package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	awspkg "github.com/iilkane/Legerity/pkg/aws"
)

const metricsTimeout = 5 * time.Second

// MetricsMiddleware records request count, latency and error class per route.
// Publishing happens off the request goroutine.
func MetricsMiddleware(recorder awspkg.MetricsRecorder, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil || !recorder.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		dims := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    routeOf(c),
			"Status":  statusClass(status),
		}
		counts := append([]string{awspkg.MetricHTTPRequests}, errorMetrics(status)...)
		latency := time.Since(start)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
			defer cancel()
			for _, name := range counts {
				_ = recorder.RecordCount(ctx, name, dims)
			}
			_ = recorder.RecordLatency(ctx, awspkg.MetricHTTPLatency, latency, dims)
		}()
	}
}

func errorMetrics(status int) []string {
	switch {
	case status >= 500:
		return []string{awspkg.MetricHTTPErrors, awspkg.MetricHTTP5xx}
	case status >= 400:
		return []string{awspkg.MetricHTTPErrors, awspkg.MetricHTTP4xx}
	}
	return nil
}

// statusClass turns 404 into "4xx".
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
