package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cleanbook/backend/pkg/metrics"
)

// Metrics HTTP 请求计数与耗时
// route 取注册的路由模板，避免路径参数导致标签基数爆炸
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
