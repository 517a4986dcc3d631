package handlers

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext extracts upstream trace headers into the request context,
// so the workflow span joins the caller's trace.
func TraceContext(prop propagation.TextMapPropagator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if prop != nil {
			ctx := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
