package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/providers/ai"
)

// ClientOptions holds the settings applied by the With* option functions.
type ClientOptions struct {
	DefaultModel string
	SystemPrompt string
	Middlewares  []MiddlewareConfig
	Extractor    *extract.Extractor
	Logger       *slog.Logger
}

// WithDefaultModel sets the model used when a request does not name one.
func WithDefaultModel(model string) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.DefaultModel = model
	}
}

// WithSystemPrompt sets the system prompt used when a request has none.
func WithSystemPrompt(prompt string) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.SystemPrompt = prompt
	}
}

// WithMiddleware appends entries to the middleware chain. The first entry is
// the outermost wrapper.
func WithMiddleware(middlewares ...MiddlewareConfig) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Middlewares = append(o.Middlewares, middlewares...)
	}
}

// WithExtractor sets the extractor used by [Extract]. Defaults to extract.New().
func WithExtractor(extractor *extract.Extractor) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Extractor = extractor
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Logger = logger
	}
}

// Client sends requests to one provider through a fixed middleware chain.
// It is immutable after New and safe for concurrent use.
type Client struct {
	provider     ai.Provider
	defaultModel string
	systemPrompt string
	send         SendFunc
	extractor    *extract.Extractor
	logger       *slog.Logger
}

// New creates a Client for provider.
func New(provider ai.Provider, opts ...func(*ClientOptions)) (*Client, error) {
	if provider == nil {
		return nil, errors.New("client: provider is nil")
	}

	options := ClientOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	for i, mw := range options.Middlewares {
		if mw.Send == nil {
			return nil, fmt.Errorf("client: middleware %d (%q) has a nil Send function", i, mw.Name)
		}
	}

	if options.Extractor == nil {
		options.Extractor = extract.New()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	names := make([]string, 0, len(options.Middlewares))
	for _, mw := range options.Middlewares {
		names = append(names, mw.Name)
	}
	options.Logger.Debug("client created",
		slog.String("provider", provider.Name()),
		slog.String("default_model", options.DefaultModel),
		slog.Any("middlewares", names),
	)

	return &Client{
		provider:     provider,
		defaultModel: options.DefaultModel,
		systemPrompt: options.SystemPrompt,
		send:         buildSendChain(provider, options.Middlewares),
		extractor:    options.Extractor,
		logger:       options.Logger,
	}, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// Extractor returns the extractor used by [Extract].
func (c *Client) Extractor() *extract.Extractor {
	return c.extractor
}

// Invoke applies the client defaults to request and sends it through the
// middleware chain. The returned response's Content is the raw model text.
func (c *Client) Invoke(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if request.Model == "" {
		request.Model = c.defaultModel
	}
	if request.SystemPrompt == "" {
		request.SystemPrompt = c.systemPrompt
	}

	response, err := c.send(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.provider.Name(), err)
	}
	if response == nil {
		return nil, fmt.Errorf("%s: nil response", c.provider.Name())
	}
	if response.Refusal != "" && response.Content == "" {
		c.logger.WarnContext(ctx, "model refused the request",
			slog.String("provider", c.provider.Name()),
			slog.String("refusal", response.Refusal),
		)
	}
	return response, nil
}
