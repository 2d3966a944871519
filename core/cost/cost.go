package cost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/stylegate/providers/ai"
)

// ModelCost represents the pricing structure for a language model.
// Costs are expressed in USD per million tokens.
//
// Example usage:
//
//	modelCost := cost.ModelCost{
//	    InputCostPerMillion:  0.15,
//	    OutputCostPerMillion: 0.60,
//	}
type ModelCost struct {
	// InputCostPerMillion is the cost in USD per 1 million prompt tokens
	InputCostPerMillion float64 `json:"input_cost_per_million" toml:"input_per_million"`

	// OutputCostPerMillion is the cost in USD per 1 million completion tokens
	OutputCostPerMillion float64 `json:"output_cost_per_million" toml:"output_per_million"`
}

// CalculateInputCost calculates the cost for the given number of input tokens.
func (mc ModelCost) CalculateInputCost(tokens int) float64 {
	return (float64(tokens) / 1_000_000.0) * mc.InputCostPerMillion
}

// CalculateOutputCost calculates the cost for the given number of output tokens.
func (mc ModelCost) CalculateOutputCost(tokens int) float64 {
	return (float64(tokens) / 1_000_000.0) * mc.OutputCostPerMillion
}

// CalculateTotalCost calculates the total cost for both token types.
func (mc ModelCost) CalculateTotalCost(inputTokens, outputTokens int) float64 {
	return mc.CalculateInputCost(inputTokens) + mc.CalculateOutputCost(outputTokens)
}

// ForUsage prices a provider usage report. A nil report costs nothing.
func (mc ModelCost) ForUsage(usage *ai.Usage) float64 {
	if usage == nil {
		return 0
	}
	return mc.CalculateTotalCost(usage.PromptTokens, usage.CompletionTokens)
}

// Validate rejects negative rates.
func (mc ModelCost) Validate() error {
	if mc.InputCostPerMillion < 0 || mc.OutputCostPerMillion < 0 {
		return fmt.Errorf("negative rate in %s", mc)
	}
	return nil
}

// String returns a formatted string representation of the model costs.
func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M",
		mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

// PriceTable maps model names to their rates.
type PriceTable map[string]ModelCost

// Lookup returns the rate for model: an exact match first, then the longest
// configured name that model starts with.
func (t PriceTable) Lookup(model string) (ModelCost, bool) {
	if model == "" || len(t) == 0 {
		return ModelCost{}, false
	}
	if mc, ok := t[model]; ok {
		return mc, true
	}

	best := ""
	for name := range t {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return ModelCost{}, false
	}
	return t[best], true
}

// Estimate prices one response. The response model wins over the requested
// one, since providers often resolve aliases to a dated snapshot. The second
// result is false when no rate is known.
func (t PriceTable) Estimate(requestModel string, response *ai.ChatResponse) (float64, bool) {
	if response == nil || response.Usage == nil {
		return 0, false
	}

	mc, ok := t.Lookup(response.Model)
	if !ok {
		mc, ok = t.Lookup(requestModel)
	}
	if !ok {
		return 0, false
	}
	return mc.ForUsage(response.Usage), true
}

// Validate checks every rate in the table.
func (t PriceTable) Validate() error {
	for name, mc := range t {
		if strings.TrimSpace(name) == "" {
			return errors.New("price table entry with empty model name")
		}
		if err := mc.Validate(); err != nil {
			return fmt.Errorf("model %q: %w", name, err)
		}
	}
	return nil
}
