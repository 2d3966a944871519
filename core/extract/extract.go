package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/leofalp/stylegate/internal/utils"
)

// previewLen bounds how much raw model text ends up in debug logs.
const previewLen = 200

// Observer receives one notification per extraction. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveExtraction(status Status, reason Reason)
}

// Extractor holds extraction options. It keeps no per-call state.
type Extractor struct {
	repair   bool
	marker   string
	logger   *slog.Logger
	observer Observer
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRepair makes the extractor run jsonrepair over a span that does not
// parse, and retry once, before reporting ReasonParseError.
func WithRepair() Option {
	return func(e *Extractor) {
		e.repair = true
	}
}

// WithMarker restricts extraction to the text after the last occurrence of
// marker, for producers that print a sentinel line before their JSON payload.
func WithMarker(marker string) Option {
	return func(e *Extractor) {
		e.marker = marker
	}
}

// WithLogger sets the logger used for debug output about fallbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithObserver registers a telemetry observer.
func WithObserver(observer Observer) Option {
	return func(e *Extractor) {
		e.observer = observer
	}
}

// New creates an Extractor. Without options it applies exactly the base
// algorithm: fence stripping, brace slicing, strict JSON parsing and shape
// validation.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// With returns a copy of e with additional options applied.
func (e *Extractor) With(opts ...Option) *Extractor {
	clone := Extractor{}
	if e != nil {
		clone = *e
	}
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

var defaultExtractor = New()

// Request bundles the inputs of one extraction.
type Request[T any] struct {
	Raw      string
	Shape    *Shape
	Fallback T
}

// Extract runs the default extractor. See [ExtractWith].
func Extract[T any](raw string, shape *Shape, fallback T) Result[T] {
	return ExtractWith(defaultExtractor, raw, shape, fallback)
}

// ExtractRequest runs e over a Request.
func ExtractRequest[T any](e *Extractor, req Request[T]) Result[T] {
	return ExtractWith(e, req.Raw, req.Shape, req.Fallback)
}

// ExtractMap extracts an untyped JSON object.
func (e *Extractor) ExtractMap(raw string, shape *Shape, fallback map[string]any) Result[map[string]any] {
	return ExtractWith(e, raw, shape, fallback)
}

// ExtractWith turns raw model text into a Result. It never returns an error
// and never touches fallback: on any failure fallback is returned as is,
// tagged with the reason.
//
//  1. Blank text yields ReasonEmptyResponse without a parse attempt.
//  2. Markdown fence markers are removed wherever they appear.
//  3. The span from the first '{' to the last '}' is kept, or the whole text
//     when there is no such pair.
//  4. The span must decode as a JSON object, otherwise ReasonParseError.
//  5. The object must satisfy shape and decode into T, otherwise
//     ReasonShapeMismatch.
//
// A nil e behaves like New().
func ExtractWith[T any](e *Extractor, raw string, shape *Shape, fallback T) Result[T] {
	if e == nil {
		e = defaultExtractor
	}

	result := run(e, raw, shape, fallback)
	e.report(raw, result.Status, result.Reason, result.Detail)
	return result
}

func run[T any](e *Extractor, raw string, shape *Shape, fallback T) Result[T] {
	text := afterMarker(raw, e.marker)
	if strings.TrimSpace(text) == "" {
		return Fallback(fallback, ReasonEmptyResponse, "no text received")
	}

	span, _ := SliceObject(StripFences(text))

	object, err := decodeObject(span)
	repaired := false
	if err != nil && e.repair {
		if fixed, repairErr := jsonrepair.JSONRepair(span); repairErr == nil {
			if object, err = decodeObject(fixed); err == nil {
				span = fixed
				repaired = true
			}
		}
	}
	if err != nil {
		return Fallback(fallback, ReasonParseError, err.Error())
	}

	if err := shape.Validate(object); err != nil {
		return Fallback(fallback, ReasonShapeMismatch, err.Error())
	}

	var value T
	if err := json.Unmarshal([]byte(span), &value); err != nil {
		return Fallback(fallback, ReasonShapeMismatch, fmt.Sprintf("decoding into %T: %v", value, err))
	}

	result := Parsed(value)
	result.Repaired = repaired
	return result
}

// decodeObject parses span as exactly one JSON object.
func decodeObject(span string) (map[string]any, error) {
	var value any
	if err := json.Unmarshal([]byte(span), &value); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", describe(value))
	}
	return object, nil
}

func (e *Extractor) report(raw string, status Status, reason Reason, detail string) {
	if e.observer != nil {
		e.observer.ObserveExtraction(status, reason)
	}
	if e.logger == nil || status == StatusParsed {
		return
	}
	e.logger.Debug("extraction fell back",
		slog.String("reason", string(reason)),
		slog.String("detail", detail),
		slog.String("raw_preview", utils.TruncateString(raw, previewLen)),
	)
}
