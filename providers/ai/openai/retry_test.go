package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jsonsift/jsonsift/internal/utils"
	"github.com/jsonsift/jsonsift/providers/ai"
)

func TestDefaultRetryableFunc(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"plain error", errors.New("connection refused"), false},
		{"status 429", &utils.HTTPStatusError{StatusCode: 429, Body: "rate limited"}, true},
		{"status 500", &utils.HTTPStatusError{StatusCode: 500, Body: "oops"}, true},
		{"status 502", &utils.HTTPStatusError{StatusCode: 502, Body: "bad gateway"}, true},
		{"status 503", &utils.HTTPStatusError{StatusCode: 503, Body: "unavailable"}, true},
		{"status 529", &utils.HTTPStatusError{StatusCode: 529, Body: "overloaded"}, true},
		{"status 400", &utils.HTTPStatusError{StatusCode: 400, Body: "bad request"}, false},
		{"status 401", &utils.HTTPStatusError{StatusCode: 401, Body: "unauthorized"}, false},
		{"status 404", &utils.HTTPStatusError{StatusCode: 404, Body: "not found"}, false},
		{"wrapped status error", fmt.Errorf("request failed: %w", &utils.HTTPStatusError{StatusCode: 503}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultRetryableFunc(tt.err); got != tt.want {
				t.Errorf("defaultRetryableFunc(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestApplyRetryDefaults(t *testing.T) {
	t.Run("zero config gets defaults", func(t *testing.T) {
		config := RetryConfig{}
		applyRetryDefaults(&config)

		if config.MaxRetries != 3 {
			t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
		}
		if config.InitialBackoff != time.Second {
			t.Errorf("expected InitialBackoff 1s, got %v", config.InitialBackoff)
		}
		if config.MaxBackoff != 30*time.Second {
			t.Errorf("expected MaxBackoff 30s, got %v", config.MaxBackoff)
		}
		if config.BackoffFactor != 2.0 {
			t.Errorf("expected BackoffFactor 2.0, got %v", config.BackoffFactor)
		}
		if config.JitterFraction != 0.1 {
			t.Errorf("expected JitterFraction 0.1, got %v", config.JitterFraction)
		}
		if config.RetryableFunc == nil {
			t.Error("expected default RetryableFunc to be set")
		}
	})

	t.Run("negative MaxRetries disables retries", func(t *testing.T) {
		config := RetryConfig{MaxRetries: -1}
		applyRetryDefaults(&config)

		if config.MaxRetries != 0 {
			t.Errorf("expected MaxRetries clamped to 0, got %d", config.MaxRetries)
		}
	})

	t.Run("explicit values preserved", func(t *testing.T) {
		config := RetryConfig{
			MaxRetries:     7,
			InitialBackoff: 10 * time.Millisecond,
			BackoffFactor:  3.0,
		}
		applyRetryDefaults(&config)

		if config.MaxRetries != 7 || config.InitialBackoff != 10*time.Millisecond || config.BackoffFactor != 3.0 {
			t.Errorf("explicit values were overwritten: %+v", config)
		}
	})
}

func TestComputeBackoff(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
		JitterFraction: 0.1,
	}

	t.Run("exponential growth within jitter bounds", func(t *testing.T) {
		for attempt, wantBase := range []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
		} {
			got := computeBackoff(config, attempt)
			maxWithJitter := wantBase + time.Duration(float64(wantBase)*config.JitterFraction)
			if got < wantBase || got > maxWithJitter {
				t.Errorf("attempt %d: backoff %v outside [%v, %v]", attempt, got, wantBase, maxWithJitter)
			}
		}
	})

	t.Run("capped at MaxBackoff", func(t *testing.T) {
		got := computeBackoff(config, 10)
		maxWithJitter := config.MaxBackoff + time.Duration(float64(config.MaxBackoff)*config.JitterFraction)
		if got > maxWithJitter {
			t.Errorf("backoff %v exceeds cap with jitter %v", got, maxWithJitter)
		}
	})
}

func TestSendMessageRetryExhausted(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "overloaded"}`))
	}))
	defer server.Close()

	p := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*OpenAIProvider).
		WithRetryConfig(RetryConfig{
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		})

	_, err := p.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})

	if err == nil {
		t.Fatal("expected error after retries exhausted, got nil")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("expected ErrRetryExhausted, got %v", err)
	}

	var statusErr *utils.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected wrapped HTTPStatusError 503, got %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("expected 3 calls (1 original + 2 retries), got %d", calls.Load())
	}
}

func TestSendMessageRetriesDisabled(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": "overloaded"}`))
	}))
	defer server.Close()

	p := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*OpenAIProvider).
		WithRetryConfig(RetryConfig{MaxRetries: -1})

	_, err := p.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Errorf("expected bare provider error with retries disabled, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected single call with retries disabled, got %d", calls.Load())
	}
}

func TestSendMessageCustomRetryableFunc(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody("brewed"))
	}))
	defer server.Close()

	p := New().
		WithAPIKey("test-key").
		WithBaseURL(server.URL).(*OpenAIProvider).
		WithRetryConfig(RetryConfig{
			InitialBackoff: time.Millisecond,
			RetryableFunc: func(err error) bool {
				var statusErr *utils.HTTPStatusError
				return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTeapot
			},
		})

	response, err := p.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Hello"}},
	})

	if err != nil {
		t.Fatalf("expected success after custom retry, got %v", err)
	}
	if response.Content != "brewed" {
		t.Errorf("expected content 'brewed', got %s", response.Content)
	}
}
