package anthropic

import (
	"encoding/json"
	"fmt"
)

/*
	MESSAGES API - SSE STREAMING

	Streaming responses arrive as SSE with event: lines naming each
	envelope, but every payload also carries a type field, so
	discrimination happens on the JSON alone. Lifecycle:

	  message_start → content_block_start → content_block_delta (repeated) →
	  content_block_stop → message_delta → message_stop
*/

// streamEvent is the envelope for all Messages API SSE payloads. The Type
// field discriminates which of the optional fields are populated.
type streamEvent struct {
	Type    string            `json:"type"`
	Message *messagesResponse `json:"message,omitempty"` // message_start
	Index   int               `json:"index,omitempty"`   // content_block_start/delta/stop
	Delta   *streamDelta      `json:"delta,omitempty"`   // content_block_delta, message_delta
	Usage   *messagesUsage    `json:"usage,omitempty"`   // message_delta
	Error   *streamError      `json:"error,omitempty"`   // error
}

// streamDelta carries incremental content. Inside content_block_delta
// events the Type field is "text_delta" or "thinking_delta"; message_delta
// events leave it empty and populate StopReason instead.
type streamDelta struct {
	Type         string `json:"type,omitempty"`
	Text         string `json:"text,omitempty"`
	Thinking     string `json:"thinking,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
	StopSequence string `json:"stop_sequence,omitempty"`
}

// streamError is the payload of an error event, e.g. overloaded_error.
type streamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// unmarshalStreamEvent parses an SSE payload into its typed envelope.
func unmarshalStreamEvent(payload string) (*streamEvent, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		return nil, fmt.Errorf("missing type field in stream event")
	}
	return &event, nil
}
