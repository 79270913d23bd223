// Package anthropic implements the ai.Provider interface for Anthropic's
// Messages API (/v1/messages).
//
// The main entry point is [New], which reads ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL from the environment. Authentication uses the
// x-api-key header together with a pinned anthropic-version; the API does
// not accept Bearer tokens. Every request carries max_tokens, defaulting to
// 4096 when the caller sets no limit.
//
// The Messages API has no native JSON response format. When a request asks
// for JSON output the adapter appends an instruction to the system prompt
// and recovers the canonical document from the completed response text, so
// callers get the same JSON-mode behavior as providers with wire-level
// support. For streaming the recovery runs once over the fully accumulated
// content, never on individual deltas.
//
// Transient failures (429, 500, 502, 503, 529) are retried with exponential
// backoff and jitter; tune or disable this via
// [AnthropicProvider.WithRetryConfig].
package anthropic
