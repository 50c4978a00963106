package ctxmanage

import (
	"github.com/gin-gonic/gin"
)

// TraceIDKey is the gin context key under which the middleware stores the
// per-request trace id.
const TraceIDKey = "traceid"

// GetTraceIdOfRequest returns the trace id set by the middleware, or
// "unknown" when the request never went through it (direct handler tests).
func GetTraceIdOfRequest(c *gin.Context) string {
	traceId, ok := c.Value(TraceIDKey).(string)
	if !ok {
		return "unknown"
	}
	return traceId
}
