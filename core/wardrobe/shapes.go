package wardrobe

import (
	"strings"

	"github.com/leofalp/stylegate/core/extract"
)

// GenerationMarker precedes the JSON report in the image generator output.
const GenerationMarker = "GENERATION_RESULT_JSON:"

var (
	SearchTermsShape = extract.MustShape(
		extract.Required("primaryTerms", extract.KindStringArray),
		extract.Optional("alternativeTerms", extract.KindStringArray),
	)

	ItemAnalysisShape = extract.MustShape(
		extract.Required("category", extract.KindString),
		extract.Optional("subcategory", extract.KindString),
		extract.Required("colors", extract.KindStringArray),
		extract.Optional("pattern", extract.KindString),
		extract.Optional("material", extract.KindString),
		extract.Required("style", extract.KindStringArray),
		extract.Optional("seasons", extract.KindStringArray),
		extract.Optional("formality", extract.KindString),
	)

	OutfitShape = extract.MustShape(
		extract.Required("itemIds", extract.KindStringArray),
		extract.Optional("name", extract.KindString),
		extract.Required("reasoning", extract.KindString),
		extract.Optional("stylingTips", extract.KindStringArray),
		extract.Optional("confidence", extract.KindNumber),
	)

	ImagePromptShape = extract.MustShape(
		extract.Required("prompt", extract.KindString),
		extract.Optional("negativePrompt", extract.KindString),
	)

	GenerationReportShape = extract.MustShape(
		extract.Required("success", extract.KindBoolean),
		extract.Optional("output_path", extract.KindString),
		extract.Optional("error", extract.KindString),
		extract.Optional("metadata", extract.KindObject),
	)
)

// SearchTermsFallback derives terms from the item itself: its name, then
// "<color> <category>", then the category. An item with none of those gets
// "clothing".
func SearchTermsFallback(item Item) SearchTerms {
	var terms []string
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		for _, existing := range terms {
			if strings.EqualFold(existing, term) {
				return
			}
		}
		terms = append(terms, term)
	}

	if item.Brand != "" && item.Name != "" {
		add(item.Brand + " " + item.Name)
	}
	add(item.Name)
	if len(item.Colors) > 0 && item.Category != "" {
		add(item.Colors[0] + " " + item.Category)
	}
	add(item.Subcategory)
	add(item.Category)

	if len(terms) == 0 {
		terms = []string{"clothing"}
	}
	return SearchTerms{PrimaryTerms: terms}
}

// ItemAnalysisFallback is the neutral analysis used when the image could not
// be analyzed.
func ItemAnalysisFallback() ItemAnalysis {
	return ItemAnalysis{
		Category:  "unknown",
		Colors:    []string{},
		Style:     []string{},
		Seasons:   []string{"spring", "summer", "fall", "winter"},
		Formality: "casual",
	}
}

// OutfitFallback is the empty suggestion used when no outfit was produced.
func OutfitFallback() OutfitSuggestion {
	return OutfitSuggestion{
		ItemIDs:   []string{},
		Reasoning: "No outfit suggestion is available right now.",
	}
}

// ImagePromptFallback builds a plain prompt listing the pieces.
func ImagePromptFallback(items []Item) ImagePrompt {
	pieces := make([]string, 0, len(items))
	for _, item := range items {
		piece := item.Name
		if len(item.Colors) > 0 {
			piece = strings.Join(item.Colors, " and ") + " " + piece
		}
		if piece = strings.TrimSpace(piece); piece != "" {
			pieces = append(pieces, piece)
		}
	}

	prompt := "full-body fashion photo of a model, studio lighting, neutral background"
	if len(pieces) > 0 {
		prompt = "full-body fashion photo of a model wearing " + strings.Join(pieces, ", ") + ", studio lighting, neutral background"
	}
	return ImagePrompt{
		Prompt:         prompt,
		NegativePrompt: "blurry, distorted, extra limbs, text, watermark",
	}
}

// GenerationReportFallback reports a failed generation.
func GenerationReportFallback() GenerationReport {
	return GenerationReport{Success: false, Error: "generation result not found in output"}
}
