// Package parse converts raw LLM text output into typed Go values. Because
// language models frequently wrap JSON in narrative prose, markdown code
// fences, or schema-style envelopes, this package applies a layered recovery
// strategy before giving up: syntactic extraction via
// [github.com/jsonsift/jsonsift/core/extract], automatic JSON repair, and
// schema-echo unwrapping, in that order.
//
// The main entry point is the generic [As] function, which handles both
// primitive types (string, bool, int, float) and complex types (structs,
// maps, slices) in a single, uniform API. [Normalize] exposes the same
// recovery chain for callers that want a canonical JSON document rather
// than a typed value.
package parse
