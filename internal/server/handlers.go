package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/core/wardrobe"
	"github.com/leofalp/stylegate/providers/ai"
)

// envelope is an extraction result plus the gateway error, if any.
type envelope[T any] struct {
	extract.Result[T]
	Error string `json:"error,omitempty"`
}

func wrap[T any](result extract.Result[T], err error) envelope[T] {
	out := envelope[T]{Result: result}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type extractRequest struct {
	Raw      string          `json:"raw"`
	Fields   []string        `json:"fields"`
	Fallback json.RawMessage `json:"fallback"`
	Marker   string          `json:"marker"`
	Repair   bool            `json:"repair"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.decode(w, r, &req) {
		return
	}

	fields := make([]extract.Field, 0, len(req.Fields))
	for _, spec := range req.Fields {
		field, err := extract.ParseField(spec)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		fields = append(fields, field)
	}
	shape, err := extract.NewShape(fields...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	fallback := map[string]any{}
	if len(req.Fallback) > 0 && string(req.Fallback) != "null" {
		if err := json.Unmarshal(req.Fallback, &fallback); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("fallback must be a JSON object: %w", err))
			return
		}
	}
	// A missing fallback is only acceptable when {} satisfies the shape.
	if err := shape.Validate(fallback); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("fallback does not match fields: %w", err))
		return
	}

	var opts []extract.Option
	if req.Marker != "" {
		opts = append(opts, extract.WithMarker(req.Marker))
	}
	if req.Repair {
		opts = append(opts, extract.WithRepair())
	}

	result := s.extractor.With(opts...).ExtractMap(req.Raw, shape, fallback)
	writeJSON(w, http.StatusOK, wrap(result, nil))
}

type searchTermsRequest struct {
	Item wardrobe.Item `json:"item"`
}

func (s *Server) handleSearchTerms(w http.ResponseWriter, r *http.Request) {
	var req searchTermsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Item.Name == "" && req.Item.Category == "" {
		writeError(w, http.StatusBadRequest, errors.New("item needs a name or a category"))
		return
	}

	result, err := s.service.SearchTerms(r.Context(), req.Item)
	writeJSON(w, http.StatusOK, wrap(result, err))
}

type analyzeRequest struct {
	Images []ai.Image `json:"images"`
	Hint   string     `json:"hint"`
}

type analyzeResponse struct {
	Results []envelope[wardrobe.ItemAnalysis] `json:"results"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Images) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("at least one image is required"))
		return
	}

	outcomes := s.service.AnalyzeImages(r.Context(), req.Images, req.Hint)
	resp := analyzeResponse{Results: make([]envelope[wardrobe.ItemAnalysis], len(outcomes))}
	for i, outcome := range outcomes {
		resp.Results[i] = wrap(outcome.Result, outcome.Err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOutfits(w http.ResponseWriter, r *http.Request) {
	var req wardrobe.OutfitRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("items must not be empty"))
		return
	}

	result, err := s.service.SuggestOutfit(r.Context(), req)
	writeJSON(w, http.StatusOK, wrap(result, err))
}

type imagePromptRequest struct {
	Outfit wardrobe.OutfitSuggestion `json:"outfit"`
	Items  []wardrobe.Item           `json:"items"`
	Style  string                    `json:"style"`
}

func (s *Server) handleImagePrompt(w http.ResponseWriter, r *http.Request) {
	var req imagePromptRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.service.OutfitImagePrompt(r.Context(), req.Outfit, req.Items, req.Style)
	writeJSON(w, http.StatusOK, wrap(result, err))
}

type generationReportRequest struct {
	Output string `json:"output"`
}

func (s *Server) handleGenerationReport(w http.ResponseWriter, r *http.Request) {
	var req generationReportRequest
	if !s.decode(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, wrap(s.service.ParseGenerationReport(req.Output), nil))
}
