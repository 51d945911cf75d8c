package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestIDKey stores the request ID in both the gin context and the request context.
const requestIDKey = contextKey("requestID")

// GetRequestIDFromContext retrieves the request ID from the Gin context.
// It returns the request ID and a boolean indicating if it was found.
func GetRequestIDFromContext(c *gin.Context) (string, bool) {
	idVal, exists := c.Get(string(requestIDKey))
	if !exists {
		return GetRequestIDFromCtx(c.Request.Context())
	}
	id, ok := idVal.(string)
	return id, ok
}

// GetRequestIDFromCtx retrieves the request ID from a plain context.
func GetRequestIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}
