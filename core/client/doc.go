// Package client is the model gateway. A [Client] wraps an [ai.Provider] with
// request defaults (model, system prompt) and a middleware chain, and
// [Extract] composes a gateway call with the structured response extractor.
//
// A gateway failure never leaves the caller without a value: [Extract] returns
// the fallback alongside the error.
package client
