package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/jsonsift/jsonsift/core/extract"
)

// ErrNoValue is returned by [Normalize] when the content contains nothing
// that could anchor a JSON value.
var ErrNoValue = errors.New("jsonsift: no JSON value found in content")

// Normalize returns the canonical JSON document recovered from content.
// Extraction runs first; when the text holds no syntactically valid value,
// the content is repaired with jsonrepair and validated again. The result is
// compact JSON with key order preserved, or an error when neither route
// produces a valid document.
func Normalize(content string) (string, error) {
	candidate := extract.JSON(content)
	if compacted, err := compactJSON(candidate); err == nil {
		return compacted, nil
	}

	// Extraction fell back to the input. Repair is only worth attempting
	// when the text contains a bracket to anchor a value, and the repairer
	// works best without leading prose.
	start := strings.IndexAny(candidate, "{[")
	if start == -1 {
		return "", ErrNoValue
	}
	candidate = candidate[start:]

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return "", fmt.Errorf("failed to repair content: %w", err)
	}

	compacted, err := compactJSON(repaired)
	if err != nil {
		return "", fmt.Errorf("repaired content is still not valid JSON: %w", err)
	}
	return compacted, nil
}

// compactJSON validates text as a single JSON value and strips insignificant
// whitespace without re-encoding.
func compactJSON(text string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
