package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jsonsift/jsonsift/internal/utils"
	"github.com/jsonsift/jsonsift/providers/ai"
)

const (
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// OpenAIProvider implements the ai.Provider interface for OpenAI-compatible
// chat completions APIs.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retry   RetryConfig
}

// New creates an OpenAI provider with default values.
// It reads OPENAI_API_KEY for authentication and OPENAI_API_BASE_URL for
// the endpoint, falling back to the public OpenAI API.
func New() *OpenAIProvider {
	apiKey := os.Getenv("OPENAI_API_KEY")
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
		retry:   defaultRetryConfig(),
	}
}

// WithAPIKey sets the API key for the provider. It returns the same
// provider so calls can be chained. It overrides the value read from
// OPENAI_API_KEY.
func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API, e.g. an OpenRouter or local
// gateway endpoint.
func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// WithRetryConfig replaces the retry policy for transient failures.
// Zero-valued fields are filled with the documented defaults; set
// MaxRetries to a negative value to disable retries entirely.
func (p *OpenAIProvider) WithRetryConfig(config RetryConfig) *OpenAIProvider {
	applyRetryDefaults(&config)
	p.retry = config
	return p
}

// SendMessage implements the ai.Provider interface. Requests that asked for
// JSON output get the response_format hint on the wire and a canonical
// document recovered from the completed response text.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	wireRequest := requestToWire(request)

	resp, err := p.send(ctx, wireRequest)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return responseToGeneric(resp, request.WantsJSON()), nil
}

// send posts the wire request, retrying transient failures according to the
// provider's retry policy.
func (p *OpenAIProvider) send(ctx context.Context, wireRequest chatCompletionRequest) (*chatCompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := computeBackoff(p.retry, attempt-1)
			slog.Debug("retrying chat completion request",
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		_, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, wireRequest)
		if err == nil {
			if resp == nil {
				return nil, errors.New("empty response body")
			}
			return resp, nil
		}

		lastErr = err

		if !p.retry.RetryableFunc(err) {
			return nil, err
		}
	}

	if p.retry.MaxRetries < 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, p.retry.MaxRetries, lastErr)
}
