package webpage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/jsonsift/jsonsift/core/extract"
	"github.com/jsonsift/jsonsift/internal/utils"
)

const (
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is the default User-Agent header value.
	DefaultUserAgent = "jsonsift-webpage/1.0"
	// MaxBodySize is the maximum response body size (10MB).
	MaxBodySize = 10 * 1024 * 1024
	// DialTimeout is the maximum time to wait for a TCP connection.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the maximum time to wait for TLS handshake.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is the maximum time to wait for response headers.
	ResponseHeaderTimeout = 10 * time.Second
	// IdleConnTimeout is the maximum time an idle connection can be reused.
	IdleConnTimeout = 90 * time.Second

	// maxRedirects caps the redirect chain length.
	maxRedirects = 10
)

// ErrNoJSON is returned by [FetchJSON] when the fetched page contains no
// recoverable JSON value. The error is wrapped with the final page URL so
// callers can use [errors.Is] while still seeing which fetch failed.
var ErrNoJSON = errors.New("no JSON value recovered from page")

// Options holds the parameters for a single fetch. URL is the only
// required field; all other fields are optional overrides for the defaults
// defined by the package-level constants.
type Options struct {
	// URL is the web page URL to fetch. Partial URLs like "example.com"
	// are normalized by prepending "https://".
	URL string

	// Timeout bounds the whole fetch including body reading.
	// Default: DefaultTimeout.
	Timeout time.Duration

	// UserAgent overrides the User-Agent header sent with the request.
	UserAgent string

	// Client overrides the HTTP client, e.g. for tests or custom
	// transports. The default client enforces the redirect cap and the
	// dial/TLS/header timeouts.
	Client *http.Client
}

// Page holds the result of a [Fetch]. URL reflects the final destination
// after all HTTP redirects.
type Page struct {
	// URL is the final URL after following all redirects.
	URL string

	// ContentType is the media type reported by the server, without
	// parameters.
	ContentType string

	// Markdown is the page content: HTML converted to Markdown, or the
	// body verbatim for textual non-HTML types.
	Markdown string
}

// Fetch retrieves the web page at opts.URL and returns its content as
// Markdown.
//
// Partial URLs (e.g. "example.com") are normalized by prepending
// "https://". Up to ten HTTP redirects are followed; the final URL after
// all redirects is returned in [Page.URL]. The response body is capped at
// [MaxBodySize] bytes and reading is performed in a goroutine so that
// context cancellation is honored even during slow reads.
//
// Fetch returns an error when the URL is empty, the HTTP status code is
// not 200 OK, the content type is neither HTML nor textual, the body
// exceeds [MaxBodySize], HTML-to-Markdown conversion fails, or the context
// is cancelled or times out.
func Fetch(ctx context.Context, opts Options) (*Page, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	// Add https:// prefix if missing.
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctxWithTimeout, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpReq.Header.Set("User-Agent", userAgent)

	client := opts.Client
	if client == nil {
		client = newDefaultClient(timeout)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctxWithTimeout.Err() != nil {
			return nil, fmt.Errorf("request timeout or canceled: %w", err)
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, resp.Status)
	}

	mediaType := resp.Header.Get("Content-Type")
	if parsed, _, parseErr := mime.ParseMediaType(mediaType); parseErr == nil {
		mediaType = parsed
	}

	// Gate on the media type before pulling the body; binary responses
	// (images, archives) have nothing to recover.
	if !isHTML(mediaType) && !isTextual(mediaType) {
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}

	body, err := readBodyCapped(ctxWithTimeout, resp.Body)
	if err != nil {
		return nil, err
	}

	markdown := string(body)
	if isHTML(mediaType) {
		markdown, err = htmltomarkdown.ConvertString(string(body))
		if err != nil {
			return nil, fmt.Errorf("failed to convert HTML to Markdown: %w", err)
		}
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		ContentType: mediaType,
		Markdown:    markdown,
	}, nil
}

// FetchJSON fetches the page at opts.URL and returns the canonical JSON
// document recovered from its content, wherever it was embedded: a fenced
// code block on an HTML page, a value inside surrounding prose, or the
// whole body of an API endpoint. Returns [ErrNoJSON] when nothing valid
// could be recovered.
func FetchJSON(ctx context.Context, opts Options) (string, error) {
	page, err := Fetch(ctx, opts)
	if err != nil {
		return "", err
	}

	doc := extract.JSON(page.Markdown)
	if !json.Valid([]byte(doc)) {
		return "", fmt.Errorf("%w: %s", ErrNoJSON, page.URL)
	}

	return doc, nil
}

// isHTML reports whether the media type carries an HTML document. An empty
// type is treated as HTML because servers that omit the header are almost
// always serving pages.
func isHTML(mediaType string) bool {
	switch mediaType {
	case "text/html", "application/xhtml+xml", "":
		return true
	}
	return false
}

// isTextual reports whether the media type is text that can be used as
// markdown without conversion. JSON responses land here, which is what
// makes [FetchJSON] work against bare API endpoints.
func isTextual(mediaType string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// readBodyCapped reads the response body up to MaxBodySize. The read runs
// in a goroutine so the context keeps working even when the server trickles
// bytes after the headers arrived.
func readBodyCapped(ctx context.Context, body io.Reader) ([]byte, error) {
	limitedReader := io.LimitReader(body, MaxBodySize)

	type readResult struct {
		data []byte
		err  error
	}

	readChan := make(chan readResult, 1)
	go func() {
		data, err := io.ReadAll(limitedReader)
		readChan <- readResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout while reading response body: %w", ctx.Err())
	case result := <-readChan:
		if result.err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", result.err)
		}
		if len(result.data) == MaxBodySize {
			return nil, fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
		}
		return result.data, nil
	}
}

// newDefaultClient builds the HTTP client used when Options.Client is nil.
// Every phase of the request carries its own timeout so a stalled server
// cannot block past the overall deadline.
func newDefaultClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			IdleConnTimeout:       IdleConnTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			ForceAttemptHTTP2:     true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (>%d)", maxRedirects)
			}
			return nil
		},
	}
}
