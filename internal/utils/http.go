package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxErrorBody bounds how much of a failed response body is kept in a StatusError.
const maxErrorBody = 2048

// StatusError is returned by DoPostSync when the endpoint answers with a
// non-2xx status. The status code is kept so callers (retry policies in
// particular) can classify the failure without parsing strings.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}

// DoPostSync performs a synchronous HTTP POST request with a JSON body and
// decodes the JSON response into OutputStruct.
//
// Error handling:
//   - Context errors (timeout, cancellation) surface through the wrapped
//     transport error and match errors.Is(err, context.DeadlineExceeded)
//   - Non-2xx responses return a *StatusError
//   - Response decoding errors include a truncated body preview
//
// apiKey is sent as a bearer token when non-empty. headers are set after the
// defaults, so they can override Content-Type or Authorization.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...map[string]string) (*http.Response, *OutputStruct, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, set := range headers {
		for key, value := range set {
			req.Header.Set(key, value)
		}
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer closeWithLog(res.Body, url)

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, &StatusError{
			StatusCode: res.StatusCode,
			Body:       TruncateString(string(respBody), maxErrorBody),
		}
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateStringDefault(string(respBody)))
	}

	return res, &resStruct, nil
}

// DoPostRaw is DoPostSync for callers that need the undecoded JSON body, for
// example to run a query over it.
func DoPostRaw(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...map[string]string) (*http.Response, []byte, error) {
	res, raw, err := DoPostSync[json.RawMessage](ctx, client, url, apiKey, body, headers...)
	if err != nil {
		return res, nil, err
	}
	return res, *raw, nil
}

// closeWithLog closes body and logs a close failure without overriding the
// caller's primary error.
func closeWithLog(body io.Closer, url string) {
	if err := body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error(), "url", url)
	}
}
