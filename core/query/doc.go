// Package query answers path lookups against JSON documents buried in LLM
// text output, without requiring the caller to declare a target struct.
// It pairs the recovery pipeline of
// [github.com/jsonsift/jsonsift/core/extract] with gjson path evaluation,
// which makes one-field reads (a judge verdict, a score, a tool argument)
// a single call:
//
//	verdict := query.Get(response, "verdict").String()
//	score := query.Get(response, "scores.accuracy").Float()
//
// Paths use gjson syntax. See https://github.com/tidwall/gjson for the
// full path language.
package query
