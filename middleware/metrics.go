package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"photocull-api/metrics"
)

// MetricsMiddleware はルート単位でリクエスト数とレイテンシを記録します
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// 未登録のパスはラベルが増えないようにまとめる
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
