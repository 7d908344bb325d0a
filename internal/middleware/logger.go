package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zentok/internal/httputil"
)

// RequestLogger пишет одну строку журнала на запрос.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("запрос", fields...)
		case status >= 400:
			logger.Warn("запрос", fields...)
		default:
			logger.Debug("запрос", fields...)
		}
	}
}

// Recovery перехватывает панику обработчика и отвечает 500.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("паника в обработчике", zap.Any("panic", err), zap.String("path", c.Request.URL.Path))
		httputil.RespondError(c, http.StatusInternalServerError, "internal error")
	})
}
