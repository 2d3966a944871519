package vision

import (
	"strings"

	"github.com/leofalp/stylegate/providers/ai"
)

type generateRequest struct {
	Model   string           `json:"model,omitempty"`
	Prompt  string           `json:"prompt"`
	System  string           `json:"system,omitempty"`
	Images  []string         `json:"images,omitempty"`
	Stream  bool             `json:"stream"`
	Format  string           `json:"format,omitempty"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
}

// buildGenerateRequest flattens a chat request into a single prompt. The
// generate endpoint has no message history, so conversation turns are joined
// in order and system messages are folded into the system field.
func buildGenerateRequest(request ai.ChatRequest) generateRequest {
	var prompt []string
	var system []string
	if request.SystemPrompt != "" {
		system = append(system, request.SystemPrompt)
	}

	for _, msg := range request.Messages {
		if msg.Content == "" {
			continue
		}
		if msg.Role == ai.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		prompt = append(prompt, msg.Content)
	}

	out := generateRequest{
		Model:  request.Model,
		Prompt: strings.Join(prompt, "\n\n"),
		System: strings.Join(system, "\n\n"),
	}

	for _, image := range request.Images {
		out.Images = append(out.Images, image.Data)
	}

	if request.ResponseFormat != nil && request.ResponseFormat.Type == ai.ResponseFormatJSONObject {
		out.Format = "json"
	}

	if cfg := request.GenerationConfig; cfg != nil {
		out.Options = &generateOptions{
			NumPredict:  cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		}
	}

	return out
}

// fillMetadata copies the optional bookkeeping fields a generate response
// may carry.
func fillMetadata(response *ai.ChatResponse, fields map[string]any) {
	if model, ok := fields["model"].(string); ok && model != "" {
		response.Model = model
	}
	if reason, ok := fields["done_reason"].(string); ok {
		response.FinishReason = reason
	}

	prompt, hasPrompt := fields["prompt_eval_count"].(float64)
	completion, hasCompletion := fields["eval_count"].(float64)
	if hasPrompt || hasCompletion {
		response.Usage = &ai.Usage{
			PromptTokens:     int(prompt),
			CompletionTokens: int(completion),
			TotalTokens:      int(prompt + completion),
		}
	}
}
