// Package ai defines the shared, provider-agnostic types and interfaces used
// by LLM provider implementations. Each provider's conversion layer is
// responsible for mapping these types to its own wire format, keeping the
// rest of the codebase decoupled from provider-specific details.
//
// The central interface is [Provider] for synchronous chat completions, with
// [StreamProvider] as an optional extension for SSE-based streaming. Request
// data flows through [ChatRequest] and responses are returned as
// [ChatResponse]. Requests that set a JSON [ResponseFormat] signal the
// provider to recover a canonical JSON document from the completed response
// before returning it.
package ai
