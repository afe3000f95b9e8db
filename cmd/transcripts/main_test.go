package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/rs/zerolog"
)

func TestLogExchange_Levels(t *testing.T) {
	tests := []struct {
		name      string
		exchange  models.Exchange
		wantLevel string
		wantError bool
	}{
		{"success", models.Exchange{ID: "ex-1", ModelID: "m", Fragments: 3, Duration: time.Second}, "info", false},
		{"failure", models.Exchange{ID: "ex-2", ModelID: "m", Error: "unknown model"}, "warn", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			if err := logExchange(&logger)(context.Background(), tt.exchange); err != nil {
				t.Fatalf("handler failed: %v", err)
			}

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			if len(lines) != 1 {
				t.Fatalf("Expected exactly one log line, got %d: %s", len(lines), buf.String())
			}

			var entry map[string]any
			if err := json.Unmarshal(lines[0], &entry); err != nil {
				t.Fatalf("Invalid log line %s: %v", lines[0], err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("Expected level %s, got %v", tt.wantLevel, entry["level"])
			}
			if entry["id"] != tt.exchange.ID {
				t.Errorf("Expected id %s, got %v", tt.exchange.ID, entry["id"])
			}
			if _, ok := entry["error"]; ok != tt.wantError {
				t.Errorf("error field present=%v, want %v", ok, tt.wantError)
			}
		})
	}
}
