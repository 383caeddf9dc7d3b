package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"tours/internal/log"
)

const correlationHeader = "Correlation-ID"

// RequestLogger gives every request a correlation id, taken from the
// Correlation-ID header or generated, and a logrus entry carrying it. The
// request is logged with its status and latency once handled.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader(correlationHeader)
		if correlationID == "" {
			correlationID = shortuuid.New()
		}
		c.Header(correlationHeader, correlationID)

		entry := logrus.WithField("correlation_id", correlationID)
		ctx := log.ToContext(c.Request.Context(), entry)
		ctx = log.ContextWithCorrelationID(ctx, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}
		if len(c.Errors) > 0 {
			entry.WithFields(fields).WithError(c.Errors.Last().Err).Warn("request")
			return
		}
		entry.WithFields(fields).Info("request")
	}
}
