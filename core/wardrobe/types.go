package wardrobe

// Item is one piece of clothing in a user's wardrobe.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Material    string   `json:"material,omitempty"`
	// Description may contain HTML copied from a retailer page.
	Description string `json:"description,omitempty"`
}

// SearchTerms are shopping queries for an item.
type SearchTerms struct {
	PrimaryTerms     []string `json:"primaryTerms"`
	AlternativeTerms []string `json:"alternativeTerms,omitempty"`
}

// ItemAnalysis is what the vision model saw in a garment photo.
type ItemAnalysis struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Colors      []string `json:"colors"`
	Pattern     string   `json:"pattern,omitempty"`
	Material    string   `json:"material,omitempty"`
	Style       []string `json:"style"`
	Seasons     []string `json:"seasons,omitempty"`
	Formality   string   `json:"formality,omitempty"`
}

// OutfitRequest describes the outfit to assemble.
type OutfitRequest struct {
	Items           []Item `json:"items"`
	Occasion        string `json:"occasion,omitempty"`
	Weather         string `json:"weather,omitempty"`
	Season          string `json:"season,omitempty"`
	StylePreference string `json:"stylePreference,omitempty"`
	MaxItems        int    `json:"maxItems,omitempty"`
}

// OutfitSuggestion is a set of wardrobe items the model put together.
type OutfitSuggestion struct {
	ItemIDs     []string `json:"itemIds"`
	Name        string   `json:"name,omitempty"`
	Reasoning   string   `json:"reasoning"`
	StylingTips []string `json:"stylingTips,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
}

// ImagePrompt is the input for the local outfit image generator.
type ImagePrompt struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
}

// GenerationReport is the summary the image generator script prints after
// GenerationMarker.
type GenerationReport struct {
	Success    bool           `json:"success"`
	OutputPath string         `json:"output_path,omitempty"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
