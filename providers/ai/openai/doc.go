// Package openai implements the stylegate model gateway provider for
// OpenAI-compatible chat-completion APIs (OpenAI, OpenRouter, Azure-style
// proxies and local servers that mimic /v1/chat/completions).
//
// The main entry point is [New], which reads OPENAI_API_KEY and
// OPENAI_API_BASE_URL from the environment. Use [Provider.WithAPIKey] and
// [Provider.WithBaseURL] to override these values programmatically.
//
// Images attached to a request are sent as image_url content parts with
// base64 data URLs, so vision-capable chat models can be used for item
// analysis as well.
package openai
