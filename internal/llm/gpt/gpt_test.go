package gpt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/llm"
)

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini"); err == nil {
		t.Error("Expected error for missing API key")
	}
	if _, err := NewClient("key", ""); err == nil {
		t.Error("Expected error for missing model")
	}
	if _, err := NewClient("key", "gpt-4o-mini"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func sseChunk(content string, finish string) string {
	finishReason := "null"
	if finish != "" {
		finishReason = fmt.Sprintf("%q", finish)
	}
	return fmt.Sprintf(`data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":%q},"finish_reason":%s}]}`+"\n\n", content, finishReason)
}

func TestInvokeModelStream_StreamsDeltas(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, sseChunk("Hel", ""))
		_, _ = io.WriteString(w, sseChunk("lo", ""))
		_, _ = io.WriteString(w, sseChunk("", "stop"))
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	var chunks []string
	resp, err := c.InvokeModelStream(context.Background(), llm.LLMRequest{Prompt: "hi", MaxTokens: 32, Temperature: 0.2}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("InvokeModelStream failed: %v", err)
	}

	if resp.Content != "Hello" {
		t.Errorf("Expected 'Hello', got %q", resp.Content)
	}
	if resp.StopReason != "stop" {
		t.Errorf("Expected stop reason 'stop', got %q", resp.StopReason)
	}
	if strings.Join(chunks, "|") != "Hel|lo" {
		t.Errorf("Unexpected chunks: %v", chunks)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini in request, got %v", body["model"])
	}
	if body["stream"] != true {
		t.Errorf("Expected stream=true in request, got %v", body["stream"])
	}
}

func TestInvokeModelStream_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = c.InvokeModelStream(context.Background(), llm.LLMRequest{Prompt: "hi"}, nil)
	if err == nil {
		t.Fatal("Expected error from server")
	}
}

func TestBuildParams_ModelFallback(t *testing.T) {
	c := &Client{ModelID: "default-model"}

	params := c.buildParams(llm.LLMRequest{Prompt: "hi"})
	if string(params.Model) != "default-model" {
		t.Errorf("Expected default model, got %s", params.Model)
	}

	params = c.buildParams(llm.LLMRequest{ModelID: "gpt-4.1", Prompt: "hi", MaxTokens: 10})
	if string(params.Model) != "gpt-4.1" {
		t.Errorf("Expected request model, got %s", params.Model)
	}
	if params.MaxCompletionTokens.Value != 10 {
		t.Errorf("Expected max tokens 10, got %d", params.MaxCompletionTokens.Value)
	}
}
