package middleware

import (
	"context"
	"time"

	"github.com/leofalp/stylegate/core/client"
	"github.com/leofalp/stylegate/providers/ai"
)

// NewTimeoutMiddleware creates a MiddlewareConfig that enforces a per-request
// deadline. If the caller's context already has a shorter deadline, that
// deadline wins as per normal context semantics. A non-positive timeout
// disables the middleware.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Name: "timeout",
		Send: func(next client.SendFunc) client.SendFunc {
			if timeout <= 0 {
				return next
			}
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				return next(ctx, request)
			}
		},
	}
}
