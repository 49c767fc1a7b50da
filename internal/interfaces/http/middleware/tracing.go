package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin server span middleware followed by one that
// tags the span with the request id and, once the handler chain has run,
// the authenticated subject. It returns nothing when tracing is disabled.
//
//	r.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)...)
func Tracing(serviceName string, enabled bool) []gin.HandlerFunc {
	if !enabled {
		return nil
	}
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), tagSpan}
}

func tagSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}
	if id := c.GetString("request_id"); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}

	c.Next()

	if uid := GetUID(c); uid != "" {
		span.SetAttributes(attribute.String("user_id", uid))
	}
}
