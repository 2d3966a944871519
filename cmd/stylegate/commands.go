package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/core/wardrobe"
	"github.com/leofalp/stylegate/internal/config"
	"github.com/leofalp/stylegate/internal/server"
	"github.com/leofalp/stylegate/providers/ai"
)

// output is what every command prints: the extraction result plus the
// gateway error, if any.
type output[T any] struct {
	extract.Result[T]
	Error string `json:"error,omitempty"`
}

func printResult[T any](w io.Writer, result extract.Result[T], err error) error {
	out := output[T]{Result: result}
	if err != nil {
		out.Error = err.Error()
	}
	return printJSON(w, out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func decodeInput(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("reading JSON from stdin: %w", err)
	}
	return nil
}

// parseFields parses a comma separated list of field declarations.
func parseFields(list string) ([]extract.Field, error) {
	var fields []extract.Field
	for _, spec := range strings.Split(list, ",") {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		field, err := extract.ParseField(spec)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func runExtract(cfg config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fieldList := fs.String("fields", "", "comma separated name:kind declarations, suffix ? for optional")
	fallbackJSON := fs.String("fallback", "{}", "fallback JSON object, must satisfy -fields")
	repair := fs.Bool("repair", cfg.Extract.Repair, "attempt to repair malformed JSON")
	marker := fs.String("marker", "", "only consider text after the last occurrence of this marker")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fields, err := parseFields(*fieldList)
	if err != nil {
		return err
	}
	shape, err := extract.NewShape(fields...)
	if err != nil {
		return err
	}

	var fallback map[string]any
	if err := json.Unmarshal([]byte(*fallbackJSON), &fallback); err != nil {
		return fmt.Errorf("-fallback must be a JSON object: %w", err)
	}
	if fallback == nil {
		fallback = map[string]any{}
	}
	if err := shape.Validate(fallback); err != nil {
		return fmt.Errorf("-fallback does not match -fields: %w", err)
	}

	raw, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	cfg.Extract.Repair = *repair
	extractor := newExtractor(cfg, slog.Default(), nil)
	if *marker != "" {
		extractor = extractor.With(extract.WithMarker(*marker))
	}

	return printResult(stdout, extractor.ExtractMap(string(raw), shape, fallback), nil)
}

func (a *app) runTerms(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	var item wardrobe.Item
	if err := decodeInput(stdin, &item); err != nil {
		return err
	}
	result, err := a.service.SearchTerms(ctx, item)
	return printResult(stdout, result, err)
}

func (a *app) runSuggest(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	var req wardrobe.OutfitRequest
	if err := decodeInput(stdin, &req); err != nil {
		return err
	}
	result, err := a.service.SuggestOutfit(ctx, req)
	return printResult(stdout, result, err)
}

type analyzeOutput struct {
	File string `json:"file"`
	output[wardrobe.ItemAnalysis]
}

func (a *app) runAnalyze(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	hint := fs.String("hint", "", "optional context about the garment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("analyze: at least one image path is required")
	}

	images := make([]ai.Image, fs.NArg())
	for i, path := range fs.Args() {
		image, err := readImage(path)
		if err != nil {
			return err
		}
		images[i] = image
	}

	outcomes := a.service.AnalyzeImages(ctx, images, *hint)
	results := make([]analyzeOutput, len(outcomes))
	for i, outcome := range outcomes {
		results[i] = analyzeOutput{File: fs.Arg(outcome.Index), output: output[wardrobe.ItemAnalysis]{Result: outcome.Result}}
		if outcome.Err != nil {
			results[i].Error = outcome.Err.Error()
		}
	}
	return printJSON(stdout, results)
}

// readImage loads an image file as base64. The MIME type comes from the file
// content, falling back to the extension.
func readImage(path string) (ai.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ai.Image{}, fmt.Errorf("reading image: %w", err)
	}
	return ai.Image{
		MimeType: detectImageType(path, data),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func detectImageType(path string, data []byte) string {
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}

func (a *app) runServe(ctx context.Context) error {
	srv := server.New(a.service,
		server.WithExtractor(a.extractor),
		server.WithMetrics(a.metrics),
		server.WithLogger(a.logger),
		server.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
	)
	return srv.ListenAndServe(ctx, a.cfg.Server.Addr, time.Duration(a.cfg.Server.ShutdownSeconds)*time.Second)
}
