package ai

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrMissingAPIKey is returned by providers that require authentication
	// when no API key has been configured.
	ErrMissingAPIKey = errors.New("API key is not set")

	// ErrEmptyChoices is returned when a chat-completion response carries no
	// choices at all. An empty message content is not an error.
	ErrEmptyChoices = errors.New("no choices in response")
)

// Provider is the interface every model endpoint implementation satisfies. It
// covers one request/response round trip: authentication, endpoint
// configuration and message dispatch.
type Provider interface {
	// Name identifies the provider in logs and metric labels.
	Name() string

	// SendMessage sends a chat request to the provider and returns the
	// completed response. Returns an error if the provider call fails,
	// the context is cancelled, or the response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}
