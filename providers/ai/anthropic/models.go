package anthropic

/*
	MESSAGES API - INPUT
*/

// messagesRequest represents the /v1/messages request format. max_tokens is
// mandatory on every request, so the field carries no omitempty.
type messagesRequest struct {
	Model       string         `json:"model"`
	Messages    []messageParam `json:"messages"`
	System      string         `json:"system,omitempty"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
	TopP        *float64       `json:"top_p,omitempty"`
	Stream      *bool          `json:"stream,omitempty"`
}

type messageParam struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []contentBlock `json:"content"`
}

/*
	MESSAGES API - OUTPUT
*/

type messagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"` // "message"
	Role         string         `json:"role"` // "assistant"
	Content      []contentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"` // "end_turn", "max_tokens", "stop_sequence", ...
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        messagesUsage  `json:"usage"`
}

// contentBlock is a discriminated union via the Type field, shared between
// request messages and response content. Requests only carry "text" blocks;
// responses may additionally carry "thinking" blocks from extended-thinking
// models. Unknown types are skipped during conversion so future API
// additions do not break decoding.
type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

// messagesUsage reports token consumption. The cache counters are
// sub-counts of input_tokens that were served from the prompt cache.
type messagesUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}
