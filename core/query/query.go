package query

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/jsonsift/jsonsift/core/extract"
)

// Document returns the canonical JSON document recovered from text and
// reports whether one was found. Text that yields no syntactically valid
// value comes back as ("", false).
func Document(text string) (string, bool) {
	doc := extract.JSON(text)
	if !json.Valid([]byte(doc)) {
		return "", false
	}
	return doc, true
}

// Get recovers the JSON document embedded in text and returns the value at
// path. When no document can be recovered the zero [gjson.Result] is
// returned, so Result.Exists reports both a missing document and a missing
// path.
func Get(text, path string) gjson.Result {
	doc, ok := Document(text)
	if !ok {
		return gjson.Result{}
	}
	return gjson.Get(doc, path)
}

// GetMany recovers the JSON document embedded in text and returns the
// values at each path in one pass. Without a recoverable document every
// entry is the zero Result.
func GetMany(text string, paths ...string) []gjson.Result {
	doc, ok := Document(text)
	if !ok {
		return make([]gjson.Result, len(paths))
	}
	return gjson.GetMany(doc, paths...)
}
