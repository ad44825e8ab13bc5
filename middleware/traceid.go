package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// TraceIDKey is the gin context key for the request trace id.
	TraceIDKey = "trace_id"
	// TraceIDHeader carries the trace id on requests and responses.
	TraceIDHeader = "X-Trace-ID"
)

// TraceID tags every request with a trace id, honoring one supplied by
// the caller and minting a UUID otherwise. The id is echoed in the
// response header so clients can quote it when reporting problems.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(TraceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" when TraceID is not
// installed.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
