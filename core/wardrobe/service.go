package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leofalp/stylegate/core/client"
	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/core/prompt"
	"github.com/leofalp/stylegate/providers/ai"
)

const defaultConcurrency = 4

// Service runs the wardrobe operations against a chat model and, for image
// analysis, an optional vision model.
//
// Failures that happen before any model call, such as a prompt template that
// does not render or an image without data, are reported like a gateway
// failure: the fallback with ReasonEmptyResponse plus a non-nil error. They
// never reach the extractor, so an extraction observer does not count them.
// Check the error to tell them apart from a model that sent nothing.
type Service struct {
	chat        *client.Client
	vision      *client.Client
	prompts     *prompt.Builder
	logger      *slog.Logger
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithVisionClient routes image analysis to c instead of the chat client.
func WithVisionClient(c *client.Client) Option {
	return func(s *Service) {
		s.vision = c
	}
}

// WithPromptBuilder replaces the built-in prompt templates.
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(s *Service) {
		s.prompts = b
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithConcurrency bounds the number of images analyzed at once by
// AnalyzeImages. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a Service. The chat client is required.
func NewService(chat *client.Client, opts ...Option) (*Service, error) {
	if chat == nil {
		return nil, errors.New("wardrobe: chat client is nil")
	}

	s := &Service{
		chat:        chat,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.prompts == nil {
		builder, err := prompt.New()
		if err != nil {
			return nil, fmt.Errorf("wardrobe: loading prompts: %w", err)
		}
		s.prompts = builder
	}
	if s.vision == nil {
		s.vision = s.chat
	}

	return s, nil
}

// SearchTerms asks the model for shopping queries for item.
func (s *Service) SearchTerms(ctx context.Context, item Item) (extract.Result[SearchTerms], error) {
	fallback := SearchTermsFallback(item)

	text, err := s.prompts.Render(prompt.SearchTerms, struct{ Item Item }{item}, SearchTermsShape)
	if err != nil {
		return extract.Fallback(fallback, extract.ReasonEmptyResponse, err.Error()), err
	}

	result, err := client.Extract(ctx, s.chat, ai.UserPrompt(text), SearchTermsShape, fallback)
	s.logOutcome(ctx, "search terms", result.Status, result.Reason, err, slog.String("item_id", item.ID))
	return result, err
}

// AnalyzeImage describes the garment in image. hint is optional user context.
func (s *Service) AnalyzeImage(ctx context.Context, image ai.Image, hint string) (extract.Result[ItemAnalysis], error) {
	fallback := ItemAnalysisFallback()

	if image.Data == "" {
		err := errors.New("wardrobe: image has no data")
		return extract.Fallback(fallback, extract.ReasonEmptyResponse, err.Error()), err
	}

	text, err := s.prompts.Render(prompt.ImageAnalysis, struct {
		Hint  string
		Count int
	}{Hint: hint, Count: 1}, ItemAnalysisShape)
	if err != nil {
		return extract.Fallback(fallback, extract.ReasonEmptyResponse, err.Error()), err
	}

	request := ai.UserPrompt(text)
	request.Images = []ai.Image{image}
	request.GenerationConfig = &ai.GenerationConfig{Temperature: 0.2}

	result, err := client.Extract(ctx, s.vision, request, ItemAnalysisShape, fallback)
	s.logOutcome(ctx, "image analysis", result.Status, result.Reason, err)
	return result, err
}

// SuggestOutfit asks the model to assemble an outfit from req.Items. Item ids
// the model invents are dropped; a reply that names no known item counts as a
// shape mismatch.
func (s *Service) SuggestOutfit(ctx context.Context, req OutfitRequest) (extract.Result[OutfitSuggestion], error) {
	fallback := OutfitFallback()

	if len(req.Items) == 0 {
		return extract.Fallback(fallback, extract.ReasonEmptyResponse, "no wardrobe items"), nil
	}

	text, err := s.prompts.Render(prompt.Outfit, req, OutfitShape)
	if err != nil {
		return extract.Fallback(fallback, extract.ReasonEmptyResponse, err.Error()), err
	}

	result, err := client.Extract(ctx, s.chat, ai.UserPrompt(text), OutfitShape, fallback)
	if result.IsParsed() {
		result = keepKnownItems(result, req, fallback)
	}

	s.logOutcome(ctx, "outfit suggestion", result.Status, result.Reason, err, slog.Int("wardrobe_size", len(req.Items)))
	return result, err
}

func keepKnownItems(result extract.Result[OutfitSuggestion], req OutfitRequest, fallback OutfitSuggestion) extract.Result[OutfitSuggestion] {
	known := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		known[item.ID] = true
	}

	kept := make([]string, 0, len(result.Value.ItemIDs))
	for _, id := range result.Value.ItemIDs {
		if known[id] && !slices.Contains(kept, id) {
			kept = append(kept, id)
		}
	}
	if req.MaxItems > 0 && len(kept) > req.MaxItems {
		kept = kept[:req.MaxItems]
	}

	if len(kept) == 0 {
		return extract.Fallback(fallback, extract.ReasonShapeMismatch, "suggestion names no wardrobe item")
	}

	result.Value.ItemIDs = kept
	return result
}

// OutfitImagePrompt writes a text-to-image prompt for outfit. items are the
// wardrobe items the outfit refers to.
func (s *Service) OutfitImagePrompt(ctx context.Context, outfit OutfitSuggestion, items []Item, style string) (extract.Result[ImagePrompt], error) {
	pieces := selectItems(outfit.ItemIDs, items)
	fallback := ImagePromptFallback(pieces)

	text, err := s.prompts.Render(prompt.OutfitImage, struct {
		Outfit OutfitSuggestion
		Items  []Item
		Style  string
	}{outfit, pieces, style}, ImagePromptShape)
	if err != nil {
		return extract.Fallback(fallback, extract.ReasonEmptyResponse, err.Error()), err
	}

	result, err := client.Extract(ctx, s.chat, ai.UserPrompt(text), ImagePromptShape, fallback)
	s.logOutcome(ctx, "outfit image prompt", result.Status, result.Reason, err)
	return result, err
}

// selectItems returns the items named by ids, in ids order. With no ids it
// returns all items.
func selectItems(ids []string, items []Item) []Item {
	if len(ids) == 0 {
		return items
	}
	byID := make(map[string]Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	selected := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			selected = append(selected, item)
		}
	}
	return selected
}

// ParseGenerationReport extracts the report from the image generator's
// combined output. It makes no model call.
func (s *Service) ParseGenerationReport(output string) extract.Result[GenerationReport] {
	return ParseGenerationReport(s.chat.Extractor(), output)
}

// ParseGenerationReport is the stateless form of Service.ParseGenerationReport.
// A nil extractor uses the package defaults.
func ParseGenerationReport(e *extract.Extractor, output string) extract.Result[GenerationReport] {
	if e == nil {
		e = extract.New()
	}
	return extract.ExtractWith(e.With(extract.WithMarker(GenerationMarker)), output, GenerationReportShape, GenerationReportFallback())
}

func (s *Service) logOutcome(ctx context.Context, operation string, status extract.Status, reason extract.Reason, err error, attrs ...slog.Attr) {
	switch {
	case err != nil:
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelWarn, operation+" used fallback after gateway error", attrs...)
	case status == extract.StatusFallback:
		attrs = append(attrs, slog.String("reason", string(reason)))
		s.logger.LogAttrs(ctx, slog.LevelInfo, operation+" used fallback", attrs...)
	default:
		s.logger.LogAttrs(ctx, slog.LevelDebug, operation+" parsed", attrs...)
	}
}
