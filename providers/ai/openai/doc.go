// Package openai implements the ai.Provider interface for OpenAI-compatible
// APIs using the universal /v1/chat/completions endpoint.
//
// The main entry point is [New], which reads OPENAI_API_KEY and
// OPENAI_API_BASE_URL from the environment. Use [OpenAIProvider.WithAPIKey]
// and [OpenAIProvider.WithBaseURL] to override these values programmatically;
// the base URL override makes the adapter work against any gateway that
// speaks the chat completions wire format (Azure, OpenRouter, Ollama, vLLM).
//
// When a request asks for JSON output the adapter sends the API's native
// response_format hint AND recovers a canonical document from the completed
// response text, so callers get clean JSON even when the model wraps it in
// Markdown fences or prose. For streaming the recovery runs once over the
// fully accumulated content, never on individual deltas.
//
// Transient failures (429, 500, 502, 503, 529) are retried with exponential
// backoff and jitter; tune or disable this via
// [OpenAIProvider.WithRetryConfig].
package openai
