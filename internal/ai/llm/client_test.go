package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func claudeTestServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") == "" {
			t.Error("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}

		var req ClaudeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.System == "" {
			t.Error("system prompt not forwarded")
		}

		json.NewEncoder(w).Encode(ClaudeResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{{Type: "text", Text: text}},
		})
	}))
}

func TestComplete_Claude(t *testing.T) {
	server := claudeTestServer(t, "the completion")
	defer server.Close()

	client := NewClient(&ClientConfig{
		Provider: ProviderClaude,
		APIKey:   "test-key",
		Model:    "claude-sonnet-4-20250514",
		Timeout:  5 * time.Second,
		BaseURL:  server.URL,
	})

	got, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "the completion" {
		t.Errorf("got %q", got)
	}
}

func TestComplete_OpenAI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}

		var req OpenAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}

		resp := OpenAIResponse{}
		resp.Choices = append(resp.Choices, struct {
			Index   int `json:"index"`
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{})
		resp.Choices[0].Message.Content = "fallback completion"
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
		Timeout:  5 * time.Second,
		BaseURL:  server.URL,
	})

	got, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "fallback completion" {
		t.Errorf("got %q", got)
	}
}

func TestComplete_APIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Provider: ProviderClaude,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		BaseURL:  server.URL,
	})

	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected API error")
	}
}

func TestComplete_EmptyResponseIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Provider: ProviderClaude,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		BaseURL:  server.URL,
	})

	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestComplete_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Provider: ProviderClaude,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		BaseURL:  server.URL,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Complete(ctx, "system", "user"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestStripMarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: "{\"a\":1}"},
		{name: "plain fence", input: "```\n{\"a\":1}\n```", want: "{\"a\":1}"},
		{name: "no fence", input: "{\"a\":1}", want: "{\"a\":1}"},
		{name: "surrounding whitespace", input: "  {\"a\":1}  ", want: "{\"a\":1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownCodeBlock(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
