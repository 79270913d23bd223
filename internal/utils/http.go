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

// HeaderOption is a single HTTP header applied to an outgoing request.
// Options are applied after the defaults, so a HeaderOption can override
// Content-Type or Authorization when a provider uses a different
// authentication scheme (Anthropic's x-api-key, for example).
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPStatusError is returned by [DoPostSync] and [DoPostStream] when the
// server answers with a non-2xx status. The status code is carried as a
// field so callers can recover it with [errors.As] instead of parsing the
// error message, which is what the provider retry policies rely on.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}

// CloseWithLog closes body and logs a warning when the close fails. Meant
// for defer statements where a close error must not override the primary
// error of the surrounding function.
func CloseWithLog(body io.Closer) {
	if err := body.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}

// DoPostSync performs a synchronous HTTP POST request with a JSON body and
// parses the JSON response into OutputStruct.
//
// Error handling strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - HTTP errors (connection failures, non-2xx status) return the error;
//     non-2xx responses yield an [HTTPStatusError] carrying status and body
//   - Response body close errors are logged but don't override primary errors
//   - JSON parsing errors include a truncated response preview for debugging
//
// The response body is always closed before returning and reads are capped
// at [maxResponseBodySize] to bound memory use on rogue responses.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	timer := NewTimer()
	res, err := httpClient.Do(req)
	timer.Stop()

	if err != nil {
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	slog.Debug("POST round-trip completed",
		"url", url,
		"status", res.StatusCode,
		"body_bytes", len(respBody),
		"duration", timer.GetDuration(),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, nil, &HTTPStatusError{StatusCode: res.StatusCode, Body: string(respBody)}
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateStringDefault(string(respBody)))
	}

	return res, &resStruct, nil
}
