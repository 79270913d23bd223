// Package extract recovers JSON values embedded in raw LLM text output.
// Language models rarely answer with bare JSON: the value usually arrives
// wrapped in a markdown code fence, prefixed with prose or a JavaScript-style
// variable declaration, and followed by trailing commentary or stray
// brackets. [JSON] peels those layers off and returns the longest
// syntactically valid JSON value found in the text, canonicalized, or the
// input unchanged when nothing can be recovered.
//
// Extraction is purely syntactic. It never repairs malformed JSON (that is
// the job of [github.com/jsonsift/jsonsift/core/parse]) and it never
// validates content against a schema.
package extract
