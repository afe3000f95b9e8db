package mcpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/client"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/rs/zerolog"
)

func echoServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req models.Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(req.Parameters.ModelID+": "))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(req.Prompt))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(models.Sentinel))
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestInvokeModel_CollectsResponse(t *testing.T) {
	logger := zerolog.Nop()
	endpoint := echoServer(t)

	handler := NewInvokeModelHandler(endpoint, "default-model", &logger)
	_, out, err := handler(context.Background(), nil, InvokeModelInput{Prompt: `a\nb`})
	if err != nil {
		t.Fatalf("handler failed: %v", err)
	}

	if out.Text != "default-model: a\nb" {
		t.Errorf("Unexpected text %q", out.Text)
	}
	if out.ModelID != "default-model" {
		t.Errorf("Expected default-model, got %s", out.ModelID)
	}

	encoded, _ := json.Marshal(out)
	if !strings.Contains(string(encoded), `"model_id":"default-model"`) {
		t.Errorf("Unexpected output encoding: %s", encoded)
	}
}

func TestInvokeModel_ExplicitModel(t *testing.T) {
	logger := zerolog.Nop()
	endpoint := echoServer(t)

	_, out, err := InvokeModel(context.Background(), endpoint, "default-model", &logger, InvokeModelInput{Prompt: "hi", ModelID: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("InvokeModel failed: %v", err)
	}
	if out.Text != "gpt-4o-mini: hi" {
		t.Errorf("Unexpected text %q", out.Text)
	}
}

func TestInvokeModel_EmptyPrompt(t *testing.T) {
	logger := zerolog.Nop()
	if _, _, err := InvokeModel(context.Background(), "ws://unused", "m", &logger, InvokeModelInput{}); err == nil {
		t.Error("Expected error for empty prompt")
	}
}

func TestInvokeModel_ConnectionFailure(t *testing.T) {
	logger := zerolog.Nop()
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	_, _, err := InvokeModel(context.Background(), endpoint, "m", &logger, InvokeModelInput{Prompt: "hi"})
	if !errors.Is(err, client.ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
}
