package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Dheelyte/studyflow/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a per-request correlation ID to the request context so
// usecase and repository log lines can be tied back to the HTTP call that
// produced them. A client-supplied X-Request-ID is reused, otherwise a fresh
// UUID is generated. The ID is always echoed on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
