// Package utils provides shared low-level helpers used throughout stylegate:
// a synchronous JSON-over-HTTP POST helper for talking to model endpoints,
// and a string helper for log-safe truncation.
//
// Key entry points: [DoPostSync] for synchronous JSON round-trips,
// [StatusError] for non-2xx responses, and [TruncateString] for log previews.
package utils
