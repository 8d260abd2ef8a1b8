package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	IdempotencyHeader     = "Idempotency-Key"
	IdempotencyContextKey = "idempotency_key"
	maxIdempotencyKeyLen  = 255
)

// IdempotencyMiddleware exposes the Idempotency-Key header to handlers.
// Over-long keys are rejected since they cannot be stored.
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
		if len(idempotencyKey) > maxIdempotencyKeyLen {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Idempotency-Key must be at most 255 characters",
			})
			return
		}
		c.Set(IdempotencyContextKey, idempotencyKey)
		c.Next()
	}
}
