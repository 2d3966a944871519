package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/leofalp/stylegate/core/client"
	"github.com/leofalp/stylegate/providers/ai"
)

// NewRateLimitMiddleware creates a MiddlewareConfig that limits outbound
// model calls to perSecond requests per second with the given burst. Calls
// wait for a token; a call whose context ends first fails with
// [ErrRateLimited]. A non-positive perSecond disables limiting.
//
// One limiter is shared by every request sent through the returned config,
// so a single config should be reused rather than rebuilt per client.
func NewRateLimitMiddleware(perSecond float64, burst int) client.MiddlewareConfig {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return client.MiddlewareConfig{
		Name: "ratelimit",
		Send: func(next client.SendFunc) client.SendFunc {
			if perSecond <= 0 {
				return next
			}
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
				}
				return next(ctx, request)
			}
		},
	}
}
