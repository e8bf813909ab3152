package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stratumhq/agentkit/llm"
	"github.com/stratumhq/agentkit/types"
)

func TestCompleteMapsRequestAndResponse(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "hello back"}},
			},
			"usage": map[string]int{
				"prompt_tokens":     100,
				"completion_tokens": 20,
				"total_tokens":      120,
			},
		})
	}))
	defer server.Close()

	client, err := New("test-key",
		WithModel("gpt-4o-mini"),
		WithBaseURL(server.URL),
		WithPricing(0.15, 0.60))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	comp, err := client.Complete(context.Background(), llm.Request{
		Prompt: "say hello",
		Tools:  []types.ToolDefinition{{Name: "lookup", Description: "look things up"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("request model = %q", captured.Model)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Content != "say hello" {
		t.Fatalf("request messages = %+v", captured.Messages)
	}
	if captured.ToolChoice != "auto" || len(captured.Tools) != 1 {
		t.Fatalf("tools not advertised: %+v", captured)
	}
	if params := captured.Tools[0].Function.Parameters; params["type"] != "object" {
		t.Fatalf("empty schema not defaulted: %+v", params)
	}

	if comp.Text != "hello back" {
		t.Fatalf("completion text = %q", comp.Text)
	}
	if comp.Usage == nil || comp.Usage.TotalTokens != 120 {
		t.Fatalf("usage = %+v", comp.Usage)
	}
	// 100 input at 0.15/1k plus 20 output at 0.60/1k.
	if want := 0.15*0.1 + 0.60*0.02; comp.Cost != want {
		t.Fatalf("cost = %v, want %v", comp.Cost, want)
	}
}

func TestCompleteDecodesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": nil,
					"tool_calls": []map[string]any{
						{
							"id":   "call-1",
							"type": "function",
							"function": map[string]any{
								"name":      "lookup",
								"arguments": `{"q":"go"}`,
							},
						},
						{
							"id":   "call-2",
							"type": "function",
							"function": map[string]any{
								"name":      "lookup",
								"arguments": "",
							},
						},
					},
				}},
			},
		})
	}))
	defer server.Close()

	client, err := New("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	comp, err := client.Complete(context.Background(), llm.Request{Prompt: "find go"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(comp.ToolCalls) != 2 {
		t.Fatalf("tool calls = %d", len(comp.ToolCalls))
	}
	if comp.ToolCalls[0].ID != "call-1" || string(comp.ToolCalls[0].Arguments) != `{"q":"go"}` {
		t.Fatalf("first call = %+v", comp.ToolCalls[0])
	}
	if string(comp.ToolCalls[1].Arguments) != "{}" {
		t.Fatalf("empty arguments should normalize to {}, got %q", comp.ToolCalls[1].Arguments)
	}
}

func TestCompleteSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := New("test-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := client.Complete(context.Background(), llm.Request{Prompt: "hi"}); err == nil {
		t.Fatal("expected API error")
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error")
	}
}
