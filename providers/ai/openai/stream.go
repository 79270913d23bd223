package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jsonsift/jsonsift/core/extract"
	"github.com/jsonsift/jsonsift/internal/utils"
	"github.com/jsonsift/jsonsift/providers/ai"
)

// StreamMessage implements ai.StreamProvider for the chat completions
// endpoint. It sends a streaming request with stream=true, surfaces each
// content delta to onDelta as it arrives, and returns the fully accumulated
// response once the stream completes.
//
// Connection failures are retried like synchronous requests; once the stream
// is open, errors are surfaced to the caller because a partially consumed
// stream cannot be transparently restarted. For requests that asked for JSON
// output the canonical document is recovered from the accumulated content
// only, never from individual deltas.
func (p *OpenAIProvider) StreamMessage(ctx context.Context, request ai.ChatRequest, onDelta ai.DeltaFunc) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	wireRequest := requestToWire(request)
	wireRequest.Stream = utils.Ptr(true)
	wireRequest.StreamOptions = &streamOptions{IncludeUsage: true}

	httpResponse, err := p.openStream(ctx, wireRequest)
	if err != nil {
		return nil, err
	}
	defer utils.CloseWithLog(httpResponse.Body)

	return p.consumeStream(ctx, httpResponse.Body, request.WantsJSON(), onDelta)
}

// openStream posts the streaming request, retrying transient failures. The
// response body is left open for SSE reading.
func (p *OpenAIProvider) openStream(ctx context.Context, wireRequest chatCompletionRequest) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := computeBackoff(p.retry, attempt-1)
			slog.Debug("retrying stream open",
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

		httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, wireRequest)
		if err == nil {
			return httpResponse, nil
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

// consumeStream reads SSE chunks until the stream ends, accumulating content
// and reasoning deltas into the final response.
func (p *OpenAIProvider) consumeStream(ctx context.Context, body io.Reader, recoverJSON bool, onDelta ai.DeltaFunc) (*ai.ChatResponse, error) {
	var (
		contentBuilder   strings.Builder
		reasoningBuilder strings.Builder
		response         = &ai.ChatResponse{}
	)

	scanner := utils.NewSSEScanner(body)

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		payload, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SSE read error: %w", err)
		}

		chunk, parseErr := unmarshalStreamChunk(payload)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse streaming chunk: %w", parseErr)
		}

		if chunk.ID != "" {
			response.Id = chunk.ID
			response.Model = chunk.Model
			response.Object = chunk.Object
			response.Created = chunk.Created
		}

		if chunk.Usage != nil {
			usage := &ai.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			}
			if chunk.Usage.CompletionTokensDetails != nil {
				usage.ReasoningTokens = chunk.Usage.CompletionTokensDetails.ReasoningTokens
			}
			if chunk.Usage.PromptTokensDetails != nil {
				usage.CachedTokens = chunk.Usage.PromptTokensDetails.CachedTokens
			}
			response.Usage = usage
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != nil && *choice.Delta.Content != "" {
				contentBuilder.WriteString(*choice.Delta.Content)
				if onDelta != nil {
					onDelta(*choice.Delta.Content)
				}
			}
			if choice.Delta.Reasoning != nil && *choice.Delta.Reasoning != "" {
				reasoningBuilder.WriteString(*choice.Delta.Reasoning)
			}
			if choice.FinishReason != nil && *choice.FinishReason != "" {
				response.FinishReason = *choice.FinishReason
			}
		}
	}

	content, reasoning := splitReasoning(contentBuilder.String(), reasoningBuilder.String())

	if recoverJSON {
		content = extract.JSON(content)
	}

	response.Content = content
	response.Reasoning = reasoning

	return response, nil
}
