package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
)

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		common.GetLoggerWith(common.LoggerNameRestfulServer).Debug("Handled request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
