package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ---- DoPostSync tests -------------------------------------------------------

// TestDoPostSync_Success verifies that a 200 response with valid JSON is
// unmarshaled into the output struct and returned without error.
func TestDoPostSync_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", r.Header.Get("Content-Type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"value":42}`)
	}))
	defer server.Close()

	type response struct {
		Value int `json:"value"`
	}

	_, result, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		server.URL,
		"test-key",
		map[string]string{"q": "test"},
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result, got nil")
	}
	if result.Value != 42 {
		t.Errorf("expected Value=42, got %d", result.Value)
	}
}

// TestDoPostSync_Non2xxStatus verifies that a non-2xx HTTP status yields an
// HTTPStatusError carrying the status code and response body.
func TestDoPostSync_Non2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "bad request")
	}))
	defer server.Close()

	type response struct {
		Value int `json:"value"`
	}

	_, _, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		server.URL,
		"",
		map[string]string{},
	)
	if err == nil {
		t.Fatal("expected error for 400 response, got nil")
	}

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status code 400, got %d", statusErr.StatusCode)
	}
	if statusErr.Body != "bad request" {
		t.Errorf("expected body 'bad request', got %q", statusErr.Body)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("expected error message to contain the status code, got: %v", err)
	}
}

// TestDoPostSync_UnmarshalError verifies that a 200 response with a body that
// cannot be unmarshaled into the output struct returns an error mentioning
// the decode failure and a response preview.
func TestDoPostSync_UnmarshalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `"not an object"`)
	}))
	defer server.Close()

	type response struct {
		Value int `json:"value"`
	}

	_, _, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		server.URL,
		"",
		map[string]string{},
	)
	if err == nil {
		t.Fatal("expected unmarshal error, got nil")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "unmarshal") {
		t.Errorf("expected error to mention unmarshaling, got: %v", err)
	}
	if !strings.Contains(err.Error(), "not an object") {
		t.Errorf("expected error to include a response preview, got: %v", err)
	}
}

// TestDoPostSync_RequestCreateError verifies that an invalid URL causes
// http.NewRequestWithContext to fail and the error is propagated.
func TestDoPostSync_RequestCreateError(t *testing.T) {
	type response struct {
		Value int `json:"value"`
	}

	// A URL with a leading space triggers a parse error in net/http.
	_, _, err := DoPostSync[response](
		context.Background(),
		nil,
		" bad url",
		"",
		map[string]string{},
	)
	if err == nil {
		t.Fatal("expected request creation error, got nil")
	}
}

// TestDoPostSync_CustomHeaders verifies that custom headers passed via
// HeaderOption are sent on the outgoing request.
func TestDoPostSync_CustomHeaders(t *testing.T) {
	const customHeaderKey = "X-Custom-Header"
	const customHeaderValue = "custom-value-123"
	var capturedHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeader = r.Header.Get(customHeaderKey)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	type response struct {
		OK bool `json:"ok"`
	}

	_, _, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		server.URL,
		"",
		map[string]string{},
		HeaderOption{Key: customHeaderKey, Value: customHeaderValue},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedHeader != customHeaderValue {
		t.Errorf("expected custom header %q, got %q", customHeaderValue, capturedHeader)
	}
}

// TestDoPostSync_HeaderOptionOverridesAuth verifies that a HeaderOption for
// Authorization replaces the default Bearer token, which is how providers
// with non-Bearer schemes opt out.
func TestDoPostSync_HeaderOptionOverridesAuth(t *testing.T) {
	var capturedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	type response struct {
		OK bool `json:"ok"`
	}

	_, _, err := DoPostSync[response](
		context.Background(),
		server.Client(),
		server.URL,
		"ignored-key",
		map[string]string{},
		HeaderOption{Key: "Authorization", Value: "Token custom"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedAuth != "Token custom" {
		t.Errorf("expected Authorization 'Token custom', got %q", capturedAuth)
	}
}

// TestDoPostSync_APIKeyInAuthHeader verifies that the API key is set as a
// Bearer token in the Authorization header, and omitted when empty.
func TestDoPostSync_APIKeyInAuthHeader(t *testing.T) {
	var capturedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	type response struct {
		OK bool `json:"ok"`
	}

	_, _, err := DoPostSync[response](context.Background(), server.Client(), server.URL, "mykey", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedAuth != "Bearer mykey" {
		t.Errorf("expected Authorization 'Bearer mykey', got %q", capturedAuth)
	}

	_, _, err = DoPostSync[response](context.Background(), server.Client(), server.URL, "", map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedAuth != "" {
		t.Errorf("expected no Authorization header with empty key, got %q", capturedAuth)
	}
}

// TestDoPostSync_NilClient_UsesDefault verifies that passing nil as the HTTP
// client causes DoPostSync to fall back to http.DefaultClient and still
// complete the request successfully.
func TestDoPostSync_NilClient_UsesDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"received":true}`)
	}))
	defer server.Close()

	type response struct {
		Received bool `json:"received"`
	}

	_, result, err := DoPostSync[response](
		context.Background(),
		nil,
		server.URL,
		"",
		map[string]string{},
	)
	if err != nil {
		t.Fatalf("expected no error with nil client, got %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result, got nil")
	}
	if !result.Received {
		t.Error("expected Received=true, got false")
	}
}

// TestDoPostSync_ContextCancellation verifies that a cancelled context aborts
// the request with an error.
func TestDoPostSync_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	type response struct {
		Value int `json:"value"`
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := DoPostSync[response](ctx, server.Client(), server.URL, "", map[string]string{})
	if err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

// ---- HTTPStatusError tests --------------------------------------------------

// TestHTTPStatusError_Message verifies the error message carries both the
// status code and the body.
func TestHTTPStatusError_Message(t *testing.T) {
	err := &HTTPStatusError{StatusCode: 429, Body: "rate limited"}
	want := "non-2xx status 429: rate limited"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

// ---- CloseWithLog tests -----------------------------------------------------

// errCloser is a mock io.Closer that always returns the configured error.
type errCloser struct {
	closeErr error
}

func (ec *errCloser) Close() error {
	return ec.closeErr
}

// TestCloseWithLog_ErrorPath verifies that CloseWithLog does not panic when
// the underlying closer returns an error. The error is only logged via slog.
func TestCloseWithLog_ErrorPath(t *testing.T) {
	closer := &errCloser{closeErr: errors.New("close error")}
	CloseWithLog(closer)
}
