package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// TraceHeader echoes the request's trace id back to the caller.
const TraceHeader = "X-Trace-Id"

// Logger assigns every request a trace id, stores it on the request context and logs the outcome.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := c.GetHeader(TraceHeader)
		if _, err := uuid.Parse(traceId); err != nil {
			traceId = uuid.NewString()
		}
		ctx := ctxmanage.WithTraceId(c.Request.Context(), traceId)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, traceId)

		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method),
			slog.String("Path", c.FullPath()),
			slog.Int("Status", c.Writer.Status()),
			slog.Duration("Latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String(logkey.ERROR, c.Errors.String()))
		}
		if c.Writer.Status() >= 500 {
			slog.Error("request failed", attrs...)
			return
		}
		slog.Info("request completed", attrs...)
	}
}
