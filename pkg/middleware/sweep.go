package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Sweeper removes expired verification codes
type Sweeper interface {
	Sweep(ctx context.Context) int64
}

// NewSweepMiddleware runs the expired-code sweep before every request. The
// sweep never fails the request.
func NewSweepMiddleware(s Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Sweep(c.Request.Context())
		c.Next()
	}
}
