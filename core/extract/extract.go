package extract

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// fenceRe matches the first markdown code fence in a response. The language
// tag is optional and case-insensitive, the content runs non-greedily to the
// closing backticks so the first block always wins.
var fenceRe = regexp.MustCompile("(?is)```(?:json)?[ \t]*\r?\n(.*?)```")

// declRe matches a leading JavaScript-style assignment such as
// `const result =` that some models emit when asked for JSON.
var declRe = regexp.MustCompile(`(?i)^\s*(?:const|let|var)\s+[A-Za-z_$][A-Za-z0-9_$]*\s*=\s*`)

// JSON recovers the longest syntactically valid JSON value embedded in text.
//
// The input is cleaned in stages: the content of the first markdown code
// fence replaces the full text when one is present; a leading JavaScript
// declaration and a trailing semicolon are stripped; everything before the
// leftmost `{` or `[` is discarded; and the remainder is parsed strictly as
// a single JSON value. When strict parsing fails, a bracket-depth scan
// collects every position where the opening bracket's pair returns to depth
// zero and the candidate slices are re-parsed longest first.
//
// On success the result is canonical JSON: minimal whitespace, key order and
// value spelling untouched. When no stage yields a valid value, JSON returns
// the original input byte-for-byte, so callers always have a safe fallback
// and can detect failure by validating the result.
//
// Example usage:
//
//	extract.JSON("Here you go:\n```json\n{\"name\": \"John\"}\n```")
//	// => `{"name":"John"}`
//
//	extract.JSON(`const result = {"scores": [1, 2, 3]};`)
//	// => `{"scores":[1,2,3]}`
//
//	extract.JSON("no structured data here")
//	// => "no structured data here"
func JSON(text string) string {
	working := stripFence(text)
	working = stripDeclaration(working)

	start := strings.IndexAny(working, "{[")
	if start == -1 {
		return text
	}
	working = working[start:]

	if canonical, ok := compact(working); ok {
		return canonical
	}

	closings := closingPositions(working)
	for i := len(closings) - 1; i >= 0; i-- {
		if canonical, ok := compact(working[:closings[i]]); ok {
			return canonical
		}
	}

	return text
}

// stripFence returns the trimmed content of the first code fence in text, or
// text unchanged when no fence is present. A fence with empty content yields
// an empty string, which later stages fail on, surfacing the original input.
func stripFence(text string) string {
	match := fenceRe.FindStringSubmatch(text)
	if match == nil {
		return text
	}
	return strings.TrimSpace(match[1])
}

// stripDeclaration removes a leading `const|let|var <name> =` prefix and one
// trailing semicolon. Both strips are independent and optional.
func stripDeclaration(text string) string {
	text = declRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")
	return strings.TrimSpace(text)
}

// compact parses text as exactly one JSON value and returns its canonical
// form. json.Compact both rejects trailing garbage and minimizes whitespace
// without re-encoding, which is what keeps key order and number spelling
// intact.
func compact(text string) (string, bool) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return "", false
	}
	return buf.String(), true
}
