package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/navan260/dsa-el/internal/logging"
	"github.com/navan260/dsa-el/internal/nbi"
	"github.com/navan260/dsa-el/internal/observability"
)

// metricsService labels HTTP traffic in the shared request metrics.
const metricsService = "http"

// requestLogger adopts or mints an X-Request-Id, echoes it, and logs one
// line per request once the handlers have run.
func requestLogger(base logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(nbi.RequestIDMetadataKey); incoming != "" {
			ctx = logging.ContextWithRequestID(ctx, incoming)
		}
		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
		))
		ctx = logging.ContextWithLogger(ctx, reqLog)
		c.Request = c.Request.WithContext(ctx)
		c.Header(nbi.RequestIDMetadataKey, logging.RequestIDFromContext(ctx))

		start := time.Now()
		c.Next()

		fields := []logging.Field{
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("error", c.Errors.Last().Error()))
		}
		if c.Writer.Status() >= 500 {
			reqLog.Warn(ctx, "http request failed", fields...)
			return
		}
		reqLog.Debug(ctx, "http request", fields...)
	}
}

// requestMetrics records every request against the route template so IDs
// in the path do not explode label cardinality.
func requestMetrics(collector *observability.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.ObserveRequest(metricsService, c.Request.Method+" "+route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
