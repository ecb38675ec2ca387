package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/doc-extract-service/internal/metrics"
)

// Metrics 记录请求耗时，路径使用路由模板避免标签基数过高
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
