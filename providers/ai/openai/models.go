package openai

import (
	"strings"

	"github.com/leofalp/stylegate/providers/ai"
)

// contentPart represents a chat completions multimodal content part.
type contentPart struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	ImageURL *contentPartImage `json:"image_url,omitempty"`
}

// contentPartImage describes image content for chat completions.
type contentPartImage struct {
	URL string `json:"url"`
}

// buildDataURL formats base64 data into a data URL for OpenAI image inputs.
func buildDataURL(mimeType, data string) string {
	if mimeType == "" || data == "" {
		return ""
	}
	return "data:" + mimeType + ";base64," + data
}

/*
	CHAT COMPLETIONS API - INPUT
*/

// chatCompletionRequest represents the /v1/chat/completions request format
type chatCompletionRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    *float64            `json:"temperature,omitempty"`
	TopP           *float64            `json:"top_p,omitempty"`
	MaxTokens      *int                `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`              // system, user, assistant
	Content any    `json:"content,omitempty"` // string or []contentPart for multimodal
}

type chatResponseFormat struct {
	Type string `json:"type"` // "text", "json_object"
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"` // "chat.completion"
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"` // "stop", "length", "content_filter"
}

type chatResponseMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content,omitempty"`
	Refusal   string `json:"refusal,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	CONVERSION FUNCTIONS
*/

// requestToChatCompletion converts ai.ChatRequest to chat completions format.
// Images are attached to the last user message as content parts.
func requestToChatCompletion(request ai.ChatRequest) chatCompletionRequest {
	req := chatCompletionRequest{
		Model: request.Model,
	}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{
			Role:    string(ai.RoleSystem),
			Content: request.SystemPrompt,
		})
	}

	lastUser := -1
	for i, msg := range request.Messages {
		if msg.Role == ai.RoleUser {
			lastUser = i
		}
	}

	for i, msg := range request.Messages {
		if i == lastUser && len(request.Images) > 0 {
			req.Messages = append(req.Messages, chatMessage{
				Role:    string(msg.Role),
				Content: multimodalContent(msg.Content, request.Images),
			})
			continue
		}
		req.Messages = append(req.Messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	// Images without any user message still need a carrier message.
	if lastUser == -1 && len(request.Images) > 0 {
		req.Messages = append(req.Messages, chatMessage{
			Role:    string(ai.RoleUser),
			Content: multimodalContent("", request.Images),
		})
	}

	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.Temperature != 0 {
			temperature := float64(cfg.Temperature)
			req.Temperature = &temperature
		}
		if cfg.TopP != 0 {
			topP := float64(cfg.TopP)
			req.TopP = &topP
		}
		if cfg.MaxTokens > 0 {
			maxTokens := cfg.MaxTokens
			req.MaxTokens = &maxTokens
		}
	}

	if request.ResponseFormat != nil && request.ResponseFormat.Type == ai.ResponseFormatJSONObject {
		req.ResponseFormat = &chatResponseFormat{Type: ai.ResponseFormatJSONObject}
	}

	return req
}

func multimodalContent(text string, images []ai.Image) []contentPart {
	parts := make([]contentPart, 0, len(images)+1)
	if text != "" {
		parts = append(parts, contentPart{Type: "text", Text: text})
	}
	for _, image := range images {
		url := buildDataURL(image.MimeType, image.Data)
		if url == "" {
			continue
		}
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &contentPartImage{URL: url}})
	}
	return parts
}

// chatCompletionToGeneric converts a chat completion response to
// ai.ChatResponse. Only the first choice is considered.
func chatCompletionToGeneric(resp chatCompletionResponse) *ai.ChatResponse {
	chatResp := &ai.ChatResponse{
		Id:      resp.ID,
		Model:   resp.Model,
		Created: resp.Created,
	}
	if resp.Usage != nil {
		chatResp.Usage = &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	if len(resp.Choices) == 0 {
		chatResp.FinishReason = "error"
		return chatResp
	}

	choice := resp.Choices[0]
	chatResp.Content = cleanThinkTags(strings.TrimSpace(choice.Message.Content))
	chatResp.Refusal = choice.Message.Refusal
	chatResp.FinishReason = choice.FinishReason
	return chatResp
}

// cleanThinkTags removes a <think>...</think> block, which reasoning models
// emit before their answer. A missing start tag means the reasoning began at
// the start of the content. Without an end tag the content is unchanged.
func cleanThinkTags(content string) string {
	startTag := "<think>"
	endTag := "</think>"

	start := strings.Index(content, startTag)
	if start == -1 {
		start = 0
	}

	end := strings.Index(content, endTag)
	if end == -1 || end < start {
		return content
	}

	cleaned := content[:start] + content[end+len(endTag):]
	return strings.TrimSpace(cleaned)
}
