package anthropic

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

// StreamMessage implements ai.StreamProvider for the Messages API. It sends
// a streaming request with stream=true, surfaces each text delta to onDelta
// as it arrives, and returns the fully accumulated response once the stream
// completes.
//
// Connection failures are retried like synchronous requests; once the
// stream is open, errors (including Messages API error events) are surfaced
// to the caller because a partially consumed stream cannot be transparently
// restarted. For requests that asked for JSON output the canonical document
// is recovered from the accumulated content only, never from individual
// deltas.
func (p *AnthropicProvider) StreamMessage(ctx context.Context, request ai.ChatRequest, onDelta ai.DeltaFunc) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	wireRequest := requestToWire(request)
	wireRequest.Stream = utils.Ptr(true)

	httpResponse, err := p.openStream(ctx, wireRequest)
	if err != nil {
		return nil, err
	}
	defer utils.CloseWithLog(httpResponse.Body)

	return p.consumeStream(ctx, httpResponse.Body, request.WantsJSON(), onDelta)
}

// openStream posts the streaming request, retrying transient failures. The
// response body is left open for SSE reading.
func (p *AnthropicProvider) openStream(ctx context.Context, wireRequest messagesRequest) (*http.Response, error) {
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

		httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+messagesEndpoint, "", wireRequest, p.buildHeaders()...)
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

// consumeStream reads SSE envelopes until message_stop or end of stream,
// accumulating text and thinking deltas into the final response.
func (p *AnthropicProvider) consumeStream(ctx context.Context, body io.Reader, recoverJSON bool, onDelta ai.DeltaFunc) (*ai.ChatResponse, error) {
	var (
		contentBuilder  strings.Builder
		thinkingBuilder strings.Builder
		response        = &ai.ChatResponse{Object: "chat.completion", Created: time.Now().Unix()}

		// Token counts are spread across the stream: message_start carries
		// the input-token snapshot, message_delta the final output count.
		wireUsage  *messagesUsage
		stopReason string
	)

	scanner := utils.NewSSEScanner(body)

loop:
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

		event, parseErr := unmarshalStreamEvent(payload)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse stream event: %w", parseErr)
		}

		switch event.Type {
		case "message_start":
			if event.Message != nil {
				response.Id = event.Message.ID
				response.Model = event.Message.Model
				usage := event.Message.Usage
				wireUsage = &usage
			}

		case "content_block_delta":
			if event.Delta == nil {
				continue
			}
			switch event.Delta.Type {
			case "text_delta":
				if event.Delta.Text != "" {
					contentBuilder.WriteString(event.Delta.Text)
					if onDelta != nil {
						onDelta(event.Delta.Text)
					}
				}
			case "thinking_delta":
				if event.Delta.Thinking != "" {
					thinkingBuilder.WriteString(event.Delta.Thinking)
				}
			}

		case "message_delta":
			if event.Usage != nil {
				if wireUsage == nil {
					wireUsage = &messagesUsage{}
				}
				wireUsage.OutputTokens = event.Usage.OutputTokens
			}
			if event.Delta != nil && event.Delta.StopReason != "" {
				stopReason = event.Delta.StopReason
			}

		case "message_stop":
			break loop

		case "error":
			errMsg := "unknown stream error"
			if event.Error != nil {
				errMsg = event.Error.Message
			}
			return nil, fmt.Errorf("anthropic stream error: %s", errMsg)

		case "ping", "content_block_start", "content_block_stop":
			// Keep-alives and block boundary markers need no action; the
			// delta envelopes carry everything this adapter accumulates.

		default:
			// Unknown event types are skipped so future API additions do
			// not break streaming.
		}
	}

	content := contentBuilder.String()
	if recoverJSON {
		content = extract.JSON(content)
	}

	response.Content = content
	response.Reasoning = thinkingBuilder.String()
	response.FinishReason = mapStopReason(stopReason)
	if wireUsage != nil {
		response.Usage = usageToGeneric(*wireUsage)
	}

	return response, nil
}
