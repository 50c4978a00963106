package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-gateway/pkg/ctxmanage"
	"storefront-gateway/pkg/logkey"
)

// Logger tags every request with a trace id and logs one line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := uuid.NewString()
		c.Set(ctxmanage.TraceIDKey, traceId)

		start := time.Now()
		c.Next()

		slog.Info("request completed",
			slog.String(logkey.TraceID, traceId),
			slog.String("METHOD", c.Request.Method),
			slog.String("PATH", c.Request.URL.Path),
			slog.Int("STATUS", c.Writer.Status()),
			slog.Duration("DURATION", time.Since(start)),
		)
	}
}
