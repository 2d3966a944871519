package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/stylegate/internal/utils"
	"github.com/leofalp/stylegate/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
	providerName            = "openai"
)

// Provider implements ai.Provider for OpenAI-compatible chat-completion APIs.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	headers map[string]string
}

var _ ai.Provider = (*Provider)(nil)

// New creates a provider configured from OPENAI_API_KEY and
// OPENAI_API_BASE_URL.
func New() *Provider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Provider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Name implements ai.Provider.
func (p *Provider) Name() string {
	return providerName
}

// WithAPIKey sets the API key for the provider
func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API
func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// WithHeader adds a header sent with every request, for example the
// HTTP-Referer and X-Title headers OpenRouter uses for attribution.
func (p *Provider) WithHeader(key, value string) *Provider {
	if p.headers == nil {
		p.headers = make(map[string]string)
	}
	p.headers[key] = value
	return p
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, ai.ErrMissingAPIKey
	}

	_, resp, err := utils.DoPostSync[chatCompletionResponse](
		ctx,
		p.client,
		p.baseURL+chatCompletionsEndpoint,
		p.apiKey,
		requestToChatCompletion(request),
		p.headers,
	)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai chat completion: %w", ai.ErrEmptyChoices)
	}

	return chatCompletionToGeneric(*resp), nil
}
