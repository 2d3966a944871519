package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when all attempts have
// failed. It wraps the last provider error, so errors.Is / errors.As still
// reach the root cause.
var ErrRetryExhausted = errors.New("stylegate: all retry attempts exhausted")

// ErrRateLimited is returned by the rate limit middleware when a request
// cannot obtain a token before its context ends.
var ErrRateLimited = errors.New("stylegate: rate limit wait aborted")
