// Package middleware provides the gateway policies for [client.Client]. Each
// middleware is constructed via a New* function that returns a
// [client.MiddlewareConfig] ready to be passed to [client.WithMiddleware].
//
//   - [NewRetryMiddleware]: retries transient failures (HTTP 429 / 5xx,
//     per-attempt timeouts) with exponential backoff and jitter.
//   - [NewTimeoutMiddleware]: adds a per-request deadline.
//   - [NewLoggingMiddleware]: emits slog entries before and after every call.
//   - [NewRateLimitMiddleware]: token-bucket limiting of outbound calls.
//
// Usage:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewRateLimitMiddleware(2, 4),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 3}),
//	        middleware.NewTimeoutMiddleware(30*time.Second),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// Middlewares execute outermost-first. Placing the timeout inside the retry
// gives every attempt its own deadline, and a timed-out attempt is retried.
package middleware
