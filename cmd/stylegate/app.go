package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/leofalp/stylegate/core/client"
	"github.com/leofalp/stylegate/core/client/middleware"
	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/core/prompt"
	"github.com/leofalp/stylegate/core/wardrobe"
	"github.com/leofalp/stylegate/internal/config"
	"github.com/leofalp/stylegate/internal/metrics"
	"github.com/leofalp/stylegate/providers/ai"
	"github.com/leofalp/stylegate/providers/ai/openai"
	"github.com/leofalp/stylegate/providers/ai/vision"
)

// app is the wired object graph shared by the model-backed commands.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	extractor *extract.Extractor
	metrics   *metrics.Collector
	service   *wardrobe.Service
}

func newExtractor(cfg config.Config, logger *slog.Logger, observer extract.Observer) *extract.Extractor {
	opts := []extract.Option{extract.WithLogger(logger)}
	if cfg.Extract.Repair {
		opts = append(opts, extract.WithRepair())
	}
	if observer != nil {
		opts = append(opts, extract.WithObserver(observer))
	}
	return extract.New(opts...)
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	collector := metrics.NewCollector()
	extractor := newExtractor(cfg, logger, collector)

	openaiProvider := openai.New()
	for key, value := range cfg.Chat.Headers {
		openaiProvider.WithHeader(key, value)
	}
	chatProvider := openaiProvider.WithBaseURL(cfg.Chat.BaseURL)
	if cfg.Chat.APIKey != "" {
		chatProvider = chatProvider.WithAPIKey(cfg.Chat.APIKey)
	}

	chat, err := newClient(cfg, logger, collector, extractor, chatProvider,
		client.WithDefaultModel(cfg.Chat.Model),
		client.WithSystemPrompt(cfg.Chat.SystemPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("chat client: %w", err)
	}

	opts := []wardrobe.Option{
		wardrobe.WithLogger(logger),
		wardrobe.WithConcurrency(cfg.Wardrobe.Concurrency),
	}

	if cfg.Vision.BaseURL != "" {
		provider, err := vision.New().WithResponsePath(cfg.Vision.ResponsePath)
		if err != nil {
			return nil, fmt.Errorf("vision.response_path: %w", err)
		}
		provider.WithBaseURL(cfg.Vision.BaseURL)

		visionClient, err := newClient(cfg, logger, collector, extractor, provider,
			client.WithDefaultModel(cfg.Vision.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("vision client: %w", err)
		}
		opts = append(opts, wardrobe.WithVisionClient(visionClient))
	}

	if dir := cfg.Wardrobe.PromptsDir; dir != "" {
		builder, err := prompt.NewFromFS(os.DirFS(dir), "*.tmpl")
		if err != nil {
			return nil, fmt.Errorf("loading prompts from %s: %w", dir, err)
		}
		opts = append(opts, wardrobe.WithPromptBuilder(builder))
	}

	service, err := wardrobe.NewService(chat, opts...)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		metrics:   collector,
		service:   service,
	}, nil
}

// newClient wraps provider in the gateway middleware stack. Metrics sit
// outermost so a request is counted once however many retries it took; the
// timeout sits inside the retry so each attempt gets its own deadline.
func newClient(cfg config.Config, logger *slog.Logger, collector *metrics.Collector, extractor *extract.Extractor, provider ai.Provider, opts ...func(*client.ClientOptions)) (*client.Client, error) {
	logLevel, err := middleware.ParseLogLevel(cfg.Gateway.LogLevel)
	if err != nil {
		return nil, err
	}

	chain := []client.MiddlewareConfig{
		collector.Middleware(provider.Name(), cfg.Pricing),
		middleware.NewRateLimitMiddleware(cfg.Gateway.RatePerSecond, cfg.Gateway.RateBurst),
	}
	if cfg.Gateway.MaxRetries > 0 {
		chain = append(chain, middleware.NewRetryMiddleware(middleware.RetryConfig{
			MaxRetries: cfg.Gateway.MaxRetries,
			Logger:     logger,
		}))
	}
	chain = append(chain,
		middleware.NewTimeoutMiddleware(time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second),
		middleware.NewLoggingMiddleware(logger, logLevel),
	)

	opts = append(opts,
		client.WithLogger(logger),
		client.WithExtractor(extractor),
		client.WithMiddleware(chain...),
	)
	return client.New(provider, opts...)
}
