package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader carries the trace identifier between the caller and this
// service. Incoming values are honored so a gateway or mobile client can
// correlate its own logs with ours.
const TraceIDHeader = "X-Trace-ID"

const (
	traceIDKey        = "trace_id"
	requestContextKey = "request_context"

	// UserIDKey is where RequireAuth stores the authenticated user's ID.
	UserIDKey = "user_id"
)

// RequestContext is the per-request metadata captured at the edge. Handlers
// and downstream middleware read it instead of re-deriving client details.
type RequestContext struct {
	TraceID   string
	UserID    string
	IP        string
	UserAgent string
}

// EnrichContext assigns every request a trace ID and snapshots client
// metadata. It must run before any middleware that logs or responds with a
// trace ID.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID returns the trace ID assigned by EnrichContext, or an empty
// string when the middleware did not run.
func GetTraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}

// GetRequestContext returns the metadata captured by EnrichContext. The
// zero value is returned rather than nil so callers can read fields without
// guarding.
func GetRequestContext(c *gin.Context) *RequestContext {
	if rc, ok := c.Value(requestContextKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{}
}
