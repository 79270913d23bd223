package openai

import (
	"strings"

	"github.com/jsonsift/jsonsift/core/extract"
	"github.com/jsonsift/jsonsift/internal/utils"
	"github.com/jsonsift/jsonsift/providers/ai"
)

// requestToWire converts an ai.ChatRequest to the chat completions format.
func requestToWire(request ai.ChatRequest) chatCompletionRequest {
	req := chatCompletionRequest{
		Model: request.Model,
	}

	if request.SystemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{
			Role:    string(ai.RoleSystem),
			Content: request.SystemPrompt,
		})
	}

	for _, msg := range request.Messages {
		req.Messages = append(req.Messages, chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	if request.GenerationConfig != nil {
		cfg := request.GenerationConfig

		if cfg.Temperature > 0 {
			req.Temperature = utils.Ptr(float64(cfg.Temperature))
		}
		if cfg.TopP > 0 {
			req.TopP = utils.Ptr(float64(cfg.TopP))
		}
		if cfg.MaxTokens > 0 {
			req.MaxTokens = utils.Ptr(cfg.MaxTokens)
		}
	}

	if request.ResponseFormat != nil && request.ResponseFormat.Type != "" {
		req.ResponseFormat = &chatResponseFormat{Type: request.ResponseFormat.Type}
	}

	return req
}

// responseToGeneric converts a chat completion response to an ai.ChatResponse.
// When recoverJSON is set the content is replaced with the canonical JSON
// document recovered from it; content with no recoverable document passes
// through unchanged.
func responseToGeneric(resp *chatCompletionResponse, recoverJSON bool) *ai.ChatResponse {
	choice := resp.Choices[0]

	content, reasoning := splitReasoning(choice.Message.Content, choice.Message.Reasoning)

	if recoverJSON {
		content = extract.JSON(content)
	}

	chatResp := &ai.ChatResponse{
		Id:           resp.ID,
		Model:        resp.Model,
		Object:       resp.Object,
		Created:      resp.Created,
		Content:      content,
		Refusal:      choice.Message.Refusal,
		Reasoning:    reasoning,
		FinishReason: choice.FinishReason,
	}

	if resp.Usage != nil {
		usage := &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		if resp.Usage.CompletionTokensDetails != nil {
			usage.ReasoningTokens = resp.Usage.CompletionTokensDetails.ReasoningTokens
		}
		if resp.Usage.PromptTokensDetails != nil {
			usage.CachedTokens = resp.Usage.PromptTokensDetails.CachedTokens
		}
		chatResp.Usage = usage
	}

	return chatResp
}

// splitReasoning separates chain-of-thought from answer text. Reasoning comes
// from the explicit wire field and from inline <think>...</think> tags (used
// by DeepSeek-style models); the returned content has the tags removed.
func splitReasoning(content, explicitReasoning string) (string, string) {
	content = strings.TrimSpace(content)
	reasoning := strings.TrimSpace(explicitReasoning)

	if content == "" && reasoning != "" {
		// Some gateways put the whole output in the reasoning field.
		return cleanThinkTags(reasoning), extractThinkTags(reasoning)
	}

	inContent := extractThinkTags(content)
	if inContent != "" {
		if reasoning != "" {
			reasoning += "\n"
		}
		reasoning += inContent
		content = cleanThinkTags(content)
	}

	return content, reasoning
}

// extractThinkTags returns the text inside <think>...</think>, or "" when the
// closing tag is absent. A missing opening tag means the reasoning starts at
// the beginning of the text.
func extractThinkTags(content string) string {
	const startTag = "<think>"
	const endTag = "</think>"

	start := strings.Index(content, startTag)
	if start == -1 {
		start = 0
	} else {
		start += len(startTag)
	}

	end := strings.Index(content, endTag)
	if end == -1 || end <= start {
		return ""
	}

	return strings.TrimSpace(content[start:end])
}

// cleanThinkTags removes <think>...</think> and its content, leaving only
// the final answer.
func cleanThinkTags(content string) string {
	const startTag = "<think>"
	const endTag = "</think>"

	start := strings.Index(content, startTag)
	if start == -1 {
		start = 0
	}

	end := strings.Index(content, endTag)
	if end == -1 || end <= start {
		return content
	}

	return strings.TrimSpace(content[:start] + content[end+len(endTag):])
}
