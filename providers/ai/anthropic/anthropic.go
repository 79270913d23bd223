package anthropic

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
	defaultBaseURL   = "https://api.anthropic.com/v1"
	messagesEndpoint = "/messages"

	// anthropicVersion pins the wire format independently of the URL.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens is used when the request sets no limit; the Messages
	// API rejects requests without max_tokens.
	defaultMaxTokens = 4096
)

// AnthropicProvider implements the ai.Provider interface for Anthropic's
// Messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retry   RetryConfig
}

// New creates an Anthropic provider with default values.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL
// for the endpoint, falling back to the public Anthropic API.
func New() *AnthropicProvider {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
		retry:   defaultRetryConfig(),
	}
}

// WithAPIKey sets the API key for the provider. It returns the same
// provider so calls can be chained. It overrides the value read from
// ANTHROPIC_API_KEY.
func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL sets the base URL for the API, e.g. a proxy or local testing
// endpoint.
func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient sets a custom HTTP client.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// WithRetryConfig replaces the retry policy for transient failures.
// Zero-valued fields are filled with the documented defaults; set
// MaxRetries to a negative value to disable retries entirely.
func (p *AnthropicProvider) WithRetryConfig(config RetryConfig) *AnthropicProvider {
	applyRetryDefaults(&config)
	p.retry = config
	return p
}

// buildHeaders constructs the headers carried by every request. The
// credential travels in x-api-key rather than a Bearer token, and
// anthropic-version locks the response format.
func (p *AnthropicProvider) buildHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: p.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
}

// SendMessage implements the ai.Provider interface. The Messages API has no
// native JSON mode, so requests that asked for JSON output get an
// instruction appended to the system prompt and a canonical document
// recovered from the completed response text.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	wireRequest := requestToWire(request)

	resp, err := p.send(ctx, wireRequest)
	if err != nil {
		return nil, err
	}

	response := responseToGeneric(resp, request.WantsJSON())
	if response.Model == "" {
		response.Model = request.Model
	}

	return response, nil
}

// send posts the wire request, retrying transient failures according to the
// provider's retry policy. The empty apiKey argument keeps DoPostSync from
// injecting a Bearer token; authentication happens via buildHeaders.
func (p *AnthropicProvider) send(ctx context.Context, wireRequest messagesRequest) (*messagesResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := computeBackoff(p.retry, attempt-1)
			slog.Debug("retrying messages request",
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

		_, resp, err := utils.DoPostSync[messagesResponse](ctx, p.client, p.baseURL+messagesEndpoint, "", wireRequest, p.buildHeaders()...)
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
