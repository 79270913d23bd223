package anthropic

import (
	"strings"
	"time"

	"github.com/jsonsift/jsonsift/core/extract"
	"github.com/jsonsift/jsonsift/internal/utils"
	"github.com/jsonsift/jsonsift/providers/ai"
)

// jsonSystemNudge is appended to the system prompt when the request asks
// for JSON output. The Messages API has no response_format field, so the
// instruction plus the recovery pass over the completed text is how this
// adapter delivers JSON mode.
const jsonSystemNudge = "Respond with a single valid JSON value and nothing else. Do not wrap it in Markdown code fences."

// requestToWire converts an ai.ChatRequest to the Messages API format.
func requestToWire(request ai.ChatRequest) messagesRequest {
	req := messagesRequest{
		Model:     request.Model,
		Messages:  buildMessages(request.Messages),
		MaxTokens: defaultMaxTokens,
	}

	system := request.SystemPrompt
	if request.WantsJSON() {
		if system != "" {
			system += "\n\n"
		}
		system += jsonSystemNudge
	}
	req.System = system

	if request.GenerationConfig != nil {
		cfg := request.GenerationConfig

		if cfg.Temperature > 0 {
			req.Temperature = utils.Ptr(float64(cfg.Temperature))
		}
		if cfg.TopP > 0 {
			req.TopP = utils.Ptr(float64(cfg.TopP))
		}
		if cfg.MaxTokens > 0 {
			req.MaxTokens = cfg.MaxTokens
		}
	}

	return req
}

// buildMessages converts generic messages to content-block form. System
// messages belong in the top-level system field; any that appear in the
// conversation are sent as user turns rather than silently dropped.
func buildMessages(messages []ai.Message) []messageParam {
	params := make([]messageParam, 0, len(messages))

	for _, msg := range messages {
		role := string(msg.Role)
		if msg.Role == ai.RoleSystem {
			role = string(ai.RoleUser)
		}

		params = append(params, messageParam{
			Role:    role,
			Content: []contentBlock{{Type: "text", Text: msg.Content}},
		})
	}

	return params
}

// responseToGeneric converts a Messages API response to an ai.ChatResponse.
// Multiple text blocks are joined with newlines into Content, thinking
// blocks into Reasoning. When recoverJSON is set the content is replaced
// with the canonical JSON document recovered from it; content with no
// recoverable document passes through unchanged.
func responseToGeneric(resp *messagesResponse, recoverJSON bool) *ai.ChatResponse {
	var textParts []string
	var thinkingParts []string

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "thinking":
			thinkingParts = append(thinkingParts, block.Thinking)
		}
	}

	content := strings.Join(textParts, "\n")
	if recoverJSON {
		content = extract.JSON(content)
	}

	return &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Object:       "chat.completion",
		Created:      time.Now().Unix(),
		Content:      content,
		Reasoning:    strings.Join(thinkingParts, "\n"),
		FinishReason: mapStopReason(resp.StopReason),
		Usage:        usageToGeneric(resp.Usage),
	}
}

// usageToGeneric maps Anthropic token counters to the shared Usage shape.
// Cache creation and cache read counts fold into CachedTokens.
func usageToGeneric(usage messagesUsage) *ai.Usage {
	return &ai.Usage{
		PromptTokens:     usage.InputTokens,
		CompletionTokens: usage.OutputTokens,
		TotalTokens:      usage.InputTokens + usage.OutputTokens,
		CachedTokens:     usage.CacheCreationInputTokens + usage.CacheReadInputTokens,
	}
}

// mapStopReason converts a Messages API stop_reason to the finish_reason
// vocabulary shared by all providers. Unrecognized values pass through
// verbatim so callers see what the API actually reported.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "refusal":
		return "content_filter"
	default:
		return stopReason
	}
}
