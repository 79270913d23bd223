//go:build integration

package anthropic

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jsonsift/jsonsift/providers/ai"
)

const (
	// defaultTestModel is used when ANTHROPIC_TEST_MODEL is not set.
	// Haiku is the cheapest/fastest Claude model suitable for tests.
	defaultTestModel = "claude-3-5-haiku-latest"
)

// requireAPIKey fails the test immediately when ANTHROPIC_API_KEY is not
// set. Integration tests are opt-in (build tag), so a missing key is a
// configuration error that should surface loudly rather than be silently
// skipped.
func requireAPIKey(t *testing.T) {
	t.Helper()
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		t.Fatal("ANTHROPIC_API_KEY is required for integration tests")
	}
}

// testModel returns the model to use for integration tests. It reads
// ANTHROPIC_TEST_MODEL first, falling back to defaultTestModel.
func testModel() string {
	if model := os.Getenv("ANTHROPIC_TEST_MODEL"); model != "" {
		return model
	}
	return defaultTestModel
}

// TestAnthropicSendMessage_Integration verifies a basic chat request against
// the real API. Requires ANTHROPIC_API_KEY.
func TestAnthropicSendMessage_Integration(t *testing.T) {
	requireAPIKey(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response, err := New().SendMessage(ctx, ai.ChatRequest{
		Model: testModel(),
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "Reply with exactly: hello world"},
		},
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if response.Content == "" {
		t.Error("expected non-empty content in response")
	}
	if response.Usage == nil || response.Usage.TotalTokens <= 0 {
		t.Errorf("expected positive token usage, got %+v", response.Usage)
	}

	t.Logf("Content: %s", response.Content)
	t.Logf("FinishReason: %s", response.FinishReason)
}

// TestAnthropicJSONMode_Integration verifies that a JSON-mode request yields
// a directly parseable document even though the Messages API has no native
// JSON response format.
func TestAnthropicJSONMode_Integration(t *testing.T) {
	requireAPIKey(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	response, err := New().SendMessage(ctx, ai.ChatRequest{
		Model: testModel(),
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: `Return an object with keys "city" (string) and "population" (number) for Paris.`},
		},
		ResponseFormat: &ai.ResponseFormat{Type: ai.FormatJSON},
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if !json.Valid([]byte(response.Content)) {
		t.Fatalf("expected valid JSON content, got: %s", response.Content)
	}

	var doc struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal([]byte(response.Content), &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !strings.EqualFold(doc.City, "Paris") {
		t.Errorf("expected city Paris, got %q", doc.City)
	}
}

// TestAnthropicStreamMessage_Integration verifies streaming against the
// real API: deltas arrive and their concatenation matches the final content.
func TestAnthropicStreamMessage_Integration(t *testing.T) {
	requireAPIKey(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var accumulated strings.Builder
	deltaCount := 0

	response, err := New().StreamMessage(ctx, ai.ChatRequest{
		Model: testModel(),
		Messages: []ai.Message{
			{Role: ai.RoleUser, Content: "Count from 1 to 5"},
		},
	}, func(delta string) {
		accumulated.WriteString(delta)
		deltaCount++
	})
	if err != nil {
		t.Fatalf("StreamMessage failed: %v", err)
	}

	if deltaCount == 0 {
		t.Error("expected at least one delta")
	}
	if response.Content == "" {
		t.Error("expected non-empty accumulated content")
	}
	if accumulated.String() != response.Content {
		t.Errorf("deltas %q do not match final content %q", accumulated.String(), response.Content)
	}

	t.Logf("Received %d deltas", deltaCount)
}
