package client

import (
	"context"

	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/providers/ai"
)

// Extract invokes the model and extracts a value matching shape from the
// reply. Unless the request already sets a response format, it asks the
// provider for a JSON object described by the shape's schema.
//
// On a gateway failure the result is the fallback with
// [extract.ReasonEmptyResponse] and the gateway error is returned as well, so
// callers that only care about the value can ignore it. Extraction failures
// are never errors; they show up on the result.
func Extract[T any](ctx context.Context, c *Client, request ai.ChatRequest, shape *extract.Shape, fallback T) (extract.Result[T], error) {
	if request.ResponseFormat == nil {
		request.ResponseFormat = ai.JSONResponse(shape.Schema())
	}

	response, err := c.Invoke(ctx, request)
	if err != nil {
		result := extract.ExtractWith(c.extractor, "", shape, fallback)
		result.Detail = err.Error()
		return result, err
	}

	return extract.ExtractWith(c.extractor, response.Content, shape, fallback), nil
}
