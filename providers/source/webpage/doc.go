// Package webpage fetches web pages and recovers JSON documents embedded
// in their content.
//
// [Fetch] retrieves a URL, converts HTML to Markdown, and returns the
// result as a [Page]. Markdown is a deliberate target format: HTML
// <pre><code> blocks become ``` fences, which is exactly the decoration
// the extraction pipeline knows how to strip. [FetchJSON] composes the two
// steps and returns the canonical JSON document recovered from the page,
// or [ErrNoJSON] when the page contains none.
//
// Textual non-HTML responses (text/plain, application/json and other
// +json types) skip conversion and are used verbatim, so FetchJSON works
// against bare API endpoints as well as HTML pages.
package webpage
