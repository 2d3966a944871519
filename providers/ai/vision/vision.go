package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/leofalp/stylegate/internal/utils"
	"github.com/leofalp/stylegate/providers/ai"
)

const (
	defaultBaseURL      = "http://localhost:11434"
	defaultResponsePath = ".response"
	generateEndpoint    = "/api/generate"
	providerName        = "vision"
)

// Provider implements ai.Provider for a local generate endpoint.
type Provider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	responsePath string
	query        *gojq.Code
}

var _ ai.Provider = (*Provider)(nil)

// New creates a provider pointed at VISION_BASE_URL, or the default local
// address when unset. VISION_API_KEY is optional and sent as a bearer token.
func New() *Provider {
	baseURL := os.Getenv("VISION_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	p := &Provider{
		apiKey:  os.Getenv("VISION_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
	// The default expression always compiles.
	p.responsePath, p.query, _ = compileQuery(defaultResponsePath)
	return p
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

// WithResponsePath sets the jq expression that locates the response text.
// The provider is left unchanged when the expression does not compile.
func (p *Provider) WithResponsePath(expression string) (*Provider, error) {
	path, code, err := compileQuery(expression)
	if err != nil {
		return p, err
	}
	p.responsePath = path
	p.query = code
	return p, nil
}

// ResponsePath returns the jq expression in use.
func (p *Provider) ResponsePath() string {
	return p.responsePath
}

func compileQuery(expression string) (string, *gojq.Code, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = defaultResponsePath
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return "", nil, fmt.Errorf("invalid jq expression %q: %w", expression, err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return "", nil, fmt.Errorf("failed to compile jq expression %q: %w", expression, err)
	}
	return expression, code, nil
}

// SendMessage implements ai.Provider.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	_, raw, err := utils.DoPostRaw(
		ctx,
		p.client,
		p.baseURL+generateEndpoint,
		p.apiKey,
		buildGenerateRequest(request),
	)
	if err != nil {
		return nil, fmt.Errorf("vision generate: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("vision generate: decoding response: %w", err)
	}

	content, err := p.locate(ctx, decoded)
	if err != nil {
		return nil, fmt.Errorf("vision generate: %w", err)
	}

	response := &ai.ChatResponse{Model: request.Model, Content: content}
	if fields, ok := decoded.(map[string]any); ok {
		fillMetadata(response, fields)
	}
	return response, nil
}

// locate runs the response query and returns the first value it yields.
// Non-string values are re-encoded as JSON text.
func (p *Provider) locate(ctx context.Context, decoded any) (string, error) {
	iter := p.query.RunWithContext(ctx, decoded)
	for {
		v, ok := iter.Next()
		if !ok {
			return "", nil
		}

		if err, isErr := v.(error); isErr {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				return "", nil
			}
			return "", fmt.Errorf("response path %q: %w", p.responsePath, err)
		}

		switch value := v.(type) {
		case nil:
			continue
		case string:
			return value, nil
		default:
			encoded, err := gojq.Marshal(value)
			if err != nil {
				return "", fmt.Errorf("response path %q: %w", p.responsePath, err)
			}
			return string(encoded), nil
		}
	}
}
